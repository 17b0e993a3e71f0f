package storage

import (
	"context"
	"errors"

	"amtrak-price-tracker/models"
)

// ErrTripNotFound is returned when a trip id has no record, e.g. deleted mid-sweep
var ErrTripNotFound = errors.New("trip not found")

// TripStore is the authoritative, non-transactional trip persistence
type TripStore interface {
	GetAll(ctx context.Context) ([]*models.Trip, error)
	Get(ctx context.Context, id string) (*models.Trip, error)
	Save(ctx context.Context, trip *models.Trip) error
	Update(ctx context.Context, trip *models.Trip) error
	Delete(ctx context.Context, id string) error
}

// SettingsStore holds the settings singleton
type SettingsStore interface {
	// Get returns the stored settings merged over the defaults
	Get(ctx context.Context) (models.Settings, error)
	// Save shallow-merges patch into the stored settings and returns the result
	Save(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
}

// CheckRecorder keeps a raw record of every check attempt
type CheckRecorder interface {
	Record(entry CheckEntry) error
}
