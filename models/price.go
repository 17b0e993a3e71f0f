package models

import "time"

// PriceObservation is a single fare seen on a results page
type PriceObservation struct {
	ServiceID string // train number, empty when the card had none
	Price     float64
}

// ScrapeResult is what one scrape cycle produced
type ScrapeResult struct {
	Prices       []float64 // de-duplicated, ascending
	MatchedPrice *float64  // fare of the requested train, nil when not found
	Pages        int
}

// Empty reports whether nothing usable was scraped
func (r *ScrapeResult) Empty() bool {
	return r == nil || (len(r.Prices) == 0 && r.MatchedPrice == nil)
}

// MinPrice returns the lowest observed fare
func (r *ScrapeResult) MinPrice() (float64, bool) {
	if r == nil || len(r.Prices) == 0 {
		return 0, false
	}
	min := r.Prices[0]
	for _, p := range r.Prices[1:] {
		if p < min {
			min = p
		}
	}
	return min, true
}

// Response converts the result into the agent protocol shape
func (r *ScrapeResult) Response() ScrapeResponse {
	resp := ScrapeResponse{Prices: []float64{}}
	if r == nil {
		return resp
	}
	resp.Prices = append(resp.Prices, r.Prices...)
	resp.TrainPrice = r.MatchedPrice
	return resp
}

// SearchResponse is the fill-and-search protocol reply
type SearchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ScrapeResponse is the scrape-prices protocol reply
type ScrapeResponse struct {
	Prices     []float64 `json:"prices"`
	TrainPrice *float64  `json:"trainPrice"`
}

// NotificationKind identifies why the user is being notified
type NotificationKind string

const (
	NotifyPriceDrop     NotificationKind = "price-drop"
	NotifyTrainNotFound NotificationKind = "train-not-found"
)

// NotificationContext carries the figures shown in a notification
type NotificationContext struct {
	CurrentPrice float64
	Savings      float64
}

// SweepReport summarizes one pass over all tracked trips
type SweepReport struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Total         int
	Skipped       int
	Checked       int
	Failed        int
	Unavailable   int // checked but no fare observed
	PriceDrops    int
	NewlyNotFound int
}

// Duration returns how long the sweep took
func (r *SweepReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
