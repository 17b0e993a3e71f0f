package services

import (
	"strings"
	"time"

	"amtrak-price-tracker/models"
)

// Outcome is what a completed check changed and what should be announced
type Outcome struct {
	PriceDrop     bool
	Savings       float64
	NewlyNotFound bool
	Unavailable   bool // nothing priced was observed; CurrentPrice is stale
}

// Resolve folds a scrape result into trip and stamps LastChecked.
//
// A matched train sets the price and clears the not-found flag. A requested
// train that was not matched falls back to the cheapest observed fare and sets
// the flag. With no train requested the cheapest fare is used. When nothing
// was observed the current price and flag are left alone, and a drop is
// still judged against the price already on record.
func Resolve(trip *models.Trip, result *models.ScrapeResult, now time.Time) Outcome {
	stampChecked(trip, now)

	var out Outcome
	wasNotFound := trip.TrainNotFound
	requested := strings.TrimSpace(trip.TrainNumber) != ""

	if result != nil && result.MatchedPrice != nil {
		price := *result.MatchedPrice
		trip.CurrentPrice = &price
		trip.TrainNotFound = false
	} else if min, ok := result.MinPrice(); ok {
		trip.CurrentPrice = &min
		trip.TrainNotFound = requested
	} else {
		out.Unavailable = true
	}

	// only the transition into not-found is announced
	out.NewlyNotFound = trip.TrainNotFound && !wasNotFound

	// price drops are announced on every check while they hold
	if trip.CurrentPrice != nil && *trip.CurrentPrice < trip.PricePaid {
		out.PriceDrop = true
		out.Savings = trip.Savings()
	}
	return out
}

// MarkFailed records an attempt that produced no result
func MarkFailed(trip *models.Trip, now time.Time) {
	stampChecked(trip, now)
}

func stampChecked(trip *models.Trip, now time.Time) {
	checked := now
	trip.LastChecked = &checked
}
