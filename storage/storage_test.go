package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var tripRowColumns = []string{
	"id", "origin", "destination", "travel_date", "train_number", "price_paid", "ticket_class",
	"current_price", "last_checked", "train_not_found", "created_at",
}

func newMockStore(t *testing.T) (*PostgresTripStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresTripStoreFromDB(sqlx.NewDb(db, "postgres"), utils.NewNopLogger()), mock
}

func TestPostgresGetAll(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM trips ORDER BY travel_date").
		WillReturnRows(sqlmock.NewRows(tripRowColumns).
			AddRow("a", "NYP", "WAS", "2026-03-15", "171", 89.0, "", nil, nil, false, created).
			AddRow("b", "BOS", "NYP", "2026-04-01", "", 49.0, "coach", 45.0, created, true, created))

	trips, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, trips, 2)
	require.Nil(t, trips[0].CurrentPrice)
	require.Nil(t, trips[0].LastChecked)
	require.Equal(t, "171", trips[0].TrainNumber)
	require.NotNil(t, trips[1].CurrentPrice)
	require.Equal(t, 45.0, *trips[1].CurrentPrice)
	require.True(t, trips[1].TrainNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveAndUpdate(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	trip := &models.Trip{ID: "a", Origin: "NYP", Destination: "WAS", TravelDate: "2026-03-15", PricePaid: 89}

	mock.ExpectExec("INSERT INTO trips").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Save(ctx, trip))

	price := 72.0
	trip.CurrentPrice = &price
	mock.ExpectExec("UPDATE trips").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Update(ctx, trip))

	mock.ExpectExec("UPDATE trips").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.Update(ctx, trip), ErrTripNotFound)

	mock.ExpectExec("DELETE FROM trips").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.Delete(ctx, "missing"), ErrTripNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT .+ FROM trips WHERE id").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(tripRowColumns))

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrTripNotFound)
}

func TestMemoryTripStore(t *testing.T) {
	store := NewMemoryTripStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.Trip{ID: "late", TravelDate: "2026-05-01"}))
	require.NoError(t, store.Save(ctx, &models.Trip{ID: "early", TravelDate: "2026-03-01"}))

	trips, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "early", trips[0].ID)

	// returned trips are copies
	price := 10.0
	trips[0].CurrentPrice = &price
	again, err := store.Get(ctx, "early")
	require.NoError(t, err)
	require.Nil(t, again.CurrentPrice)

	require.NoError(t, store.Delete(ctx, "early"))
	require.ErrorIs(t, store.Update(ctx, &models.Trip{ID: "early"}), ErrTripNotFound)
}

func TestSettingsFileDefaultsAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json5")
	store := NewSettingsFile(path, utils.NewNopLogger())
	ctx := context.Background()

	s, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, models.DefaultSettings(), s)

	require.NoError(t, os.WriteFile(path, []byte(`{checkInterval: 2, /* partial */ emailAddress: "me@example.com"}`), 0o644))
	s, err = store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, s.CheckInterval)
	require.True(t, s.NotificationsEnabled)
	require.Equal(t, "me@example.com", s.EmailAddress)

	enabled := true
	s, err = store.Save(ctx, models.SettingsPatch{EmailEnabled: &enabled})
	require.NoError(t, err)
	require.True(t, s.EmailEnabled)
	require.Equal(t, 2, s.CheckInterval)

	reread, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, s, reread)
}

func TestSettingsFileWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json5")
	store := NewSettingsFile(path, utils.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan models.Settings, 8)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(s models.Settings) {
			select {
			case changes <- s:
			default:
			}
		})
	}()

	interval := 8
	require.Eventually(t, func() bool {
		if _, err := store.Save(context.Background(), models.SettingsPatch{CheckInterval: &interval}); err != nil {
			return false
		}
		select {
		case s := <-changes:
			return s.CheckInterval == 8
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestCSVWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "checks.csv")
	w := NewCSVWriter(path, utils.NewNopLogger())
	matched := 85.0

	require.NoError(t, w.Record(CheckEntry{TripID: "a", Prices: []float64{85, 120.5}, MatchedPrice: &matched, CheckedAt: time.Now()}))
	require.NoError(t, w.Record(CheckEntry{TripID: "b", Error: "surface unavailable", CheckedAt: time.Now()}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, checkHeader, rows[0])
	require.Equal(t, "85.00;120.50", rows[1][6])
	require.Equal(t, "85.00", rows[1][7])
	require.Equal(t, "surface unavailable", rows[2][10])
}
