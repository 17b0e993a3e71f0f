package services

import (
	"time"

	"amtrak-price-tracker/models"

	"github.com/google/uuid"
)

// NewTrip prepares a user supplied trip for storage: it assigns an id and
// creation time, normalizes the fields and validates them
func NewTrip(input models.Trip, now time.Time) (*models.Trip, error) {
	trip := input
	trip.ID = uuid.NewString()
	trip.CreatedAt = now
	trip.CurrentPrice = nil
	trip.LastChecked = nil
	trip.TrainNotFound = false
	trip.Normalize()
	if err := trip.Validate(); err != nil {
		return nil, err
	}
	return &trip, nil
}
