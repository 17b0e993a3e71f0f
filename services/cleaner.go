package services

import (
	"context"
	"fmt"
	"time"

	"amtrak-price-tracker/storage"
	"amtrak-price-tracker/utils"
)

// TripCleaner removes trips that no longer need tracking
type TripCleaner struct {
	trips  storage.TripStore
	logger *utils.Logger
}

// NewTripCleaner creates a new TripCleaner
func NewTripCleaner(trips storage.TripStore, logger *utils.Logger) *TripCleaner {
	return &TripCleaner{trips: trips, logger: logger}
}

// PruneDeparted deletes every trip whose travel date is before now's date
// and returns how many were removed
func (c *TripCleaner) PruneDeparted(ctx context.Context, now time.Time) (int, error) {
	trips, err := c.trips.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load trips: %w", err)
	}

	removed := 0
	for _, t := range trips {
		if !t.IsPast(now) {
			continue
		}
		if err := c.trips.Delete(ctx, t.ID); err != nil {
			c.logger.Warn("Could not remove trip %s: %v", t.ID, err)
			continue
		}
		c.logger.Debug("Removed departed trip %s (%s on %s)", t.ID, t.Route(), t.TravelDate)
		removed++
	}

	c.logger.Info("Removed %d departed trip(s) of %d", removed, len(trips))
	return removed, nil
}
