package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/storage"
	"amtrak-price-tracker/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("amtrak-price-tracker/services")

// Checker produces a scrape result for one trip
type Checker interface {
	Check(ctx context.Context, trip *models.Trip) (*models.ScrapeResult, error)
}

// Tracker runs sweeps: one sequential price check over every tracked trip
type Tracker struct {
	trips    storage.TripStore
	settings storage.SettingsStore
	checker  Checker
	sink     Sink
	recorder storage.CheckRecorder
	limiter  *utils.RateLimiter
	logger   *utils.Logger
	now      func() time.Time

	group singleflight.Group
}

// NewTracker wires a tracker. recorder may be nil.
func NewTracker(
	trips storage.TripStore,
	settings storage.SettingsStore,
	checker Checker,
	sink Sink,
	recorder storage.CheckRecorder,
	limiter *utils.RateLimiter,
	logger *utils.Logger,
) *Tracker {
	if limiter == nil {
		limiter = utils.NewRateLimiter(0)
	}
	return &Tracker{
		trips:    trips,
		settings: settings,
		checker:  checker,
		sink:     sink,
		recorder: recorder,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep checks every trip once. A sweep started while another is running
// joins it and gets the same report.
func (t *Tracker) Sweep(ctx context.Context) (*models.SweepReport, error) {
	v, err, shared := t.group.Do("sweep", func() (interface{}, error) {
		return t.sweep(ctx)
	})
	if shared {
		t.logger.Debug("Sweep request joined the one already in progress")
	}
	if err != nil {
		return nil, err
	}
	return v.(*models.SweepReport), nil
}

func (t *Tracker) sweep(ctx context.Context) (*models.SweepReport, error) {
	ctx, span := tracer.Start(ctx, "Sweep")
	defer span.End()

	report := &models.SweepReport{StartedAt: t.now()}

	trips, err := t.trips.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}
	report.Total = len(trips)
	t.logger.Info("Starting price sweep over %d trip(s)", len(trips))

	for i, trip := range trips {
		if trip.IsPast(t.now()) {
			report.Skipped++
			t.logger.Debug("[%d/%d] %s on %s has departed, skipping", i+1, len(trips), trip.Route(), trip.TravelDate)
			continue
		}
		if err := t.limiter.Wait(ctx); err != nil {
			t.logger.Warn("Sweep interrupted: %v", err)
			break
		}
		t.logger.Info("[%d/%d] Checking %s on %s", i+1, len(trips), trip.Route(), trip.TravelDate)
		t.checkTrip(ctx, trip, report)
	}

	report.FinishedAt = t.now()
	finished := report.FinishedAt
	if _, err := t.settings.Save(ctx, models.SettingsPatch{LastChecked: &finished}); err != nil {
		t.logger.Warn("Could not record sweep time: %v", err)
	}

	span.SetAttributes(
		attribute.Int("trips.total", report.Total),
		attribute.Int("trips.failed", report.Failed),
	)
	t.logger.Info("Sweep done in %v: %d checked, %d failed, %d skipped, %d price drop(s)",
		report.Duration().Round(time.Second), report.Checked, report.Failed, report.Skipped, report.PriceDrops)
	return report, nil
}

// checkTrip runs one attempt. Nothing here aborts the sweep.
func (t *Tracker) checkTrip(ctx context.Context, trip *models.Trip, report *models.SweepReport) {
	ctx, span := tracer.Start(ctx, "CheckTrip", trace.WithAttributes(
		attribute.String("trip.id", trip.ID),
		attribute.String("trip.route", trip.Route()),
	))
	defer span.End()

	entry := storage.CheckEntry{
		TripID:      trip.ID,
		Origin:      trip.Origin,
		Destination: trip.Destination,
		TravelDate:  trip.TravelDate,
		TrainNumber: trip.TrainNumber,
	}

	var outcome Outcome
	result, err := t.checker.Check(ctx, trip)
	now := t.now()
	if err != nil {
		report.Failed++
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.Warn("  Check failed: %v", err)
		MarkFailed(trip, now)
		entry.Error = err.Error()
	} else {
		report.Checked++
		outcome = Resolve(trip, result, now)
		if result != nil {
			entry.Prices = result.Prices
			entry.MatchedPrice = result.MatchedPrice
		}
		if outcome.Unavailable {
			report.Unavailable++
			t.logger.Warn("  No fares observed, price unavailable")
		} else {
			t.logger.Info("  Current price $%.2f (paid $%.2f)", *trip.CurrentPrice, trip.PricePaid)
		}
	}
	entry.CheckedAt = now
	entry.CurrentPrice = trip.CurrentPrice
	entry.TrainNotFound = trip.TrainNotFound
	t.record(entry)

	if err := t.trips.Update(ctx, trip); err != nil {
		if errors.Is(err, storage.ErrTripNotFound) {
			t.logger.Warn("  Trip %s was removed during the sweep, result dropped", trip.ID)
			return
		}
		t.logger.Error("  Failed to save trip %s: %v", trip.ID, err)
	}

	if outcome.NewlyNotFound {
		report.NewlyNotFound++
		t.sink.Notify(ctx, models.NotifyTrainNotFound, trip, models.NotificationContext{CurrentPrice: *trip.CurrentPrice})
	}
	if outcome.PriceDrop {
		report.PriceDrops++
		t.sink.Notify(ctx, models.NotifyPriceDrop, trip, models.NotificationContext{
			CurrentPrice: *trip.CurrentPrice,
			Savings:      outcome.Savings,
		})
	}
}

func (t *Tracker) record(entry storage.CheckEntry) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.Record(entry); err != nil {
		t.logger.Warn("  Could not write check log: %v", err)
	}
}
