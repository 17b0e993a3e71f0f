package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const tripColumns = `id, origin, destination, travel_date, train_number, price_paid, ticket_class,
	current_price, last_checked, train_not_found, created_at`

// PostgresTripStore stores trips in PostgreSQL
type PostgresTripStore struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// NewPostgresTripStore connects to the database, pinging it with retries
func NewPostgresTripStore(connStr string, maxRetries int, logger *utils.Logger) (*PostgresTripStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Minute * 5)

	err = utils.RetryWithBackoff(maxRetries, db.Ping, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return NewPostgresTripStoreFromDB(db, logger), nil
}

// NewPostgresTripStoreFromDB wraps an existing connection
func NewPostgresTripStoreFromDB(db *sqlx.DB, logger *utils.Logger) *PostgresTripStore {
	return &PostgresTripStore{db: db, logger: logger}
}

// CreateTable creates the trips table if it doesn't exist
func (s *PostgresTripStore) CreateTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS trips (
		id              TEXT PRIMARY KEY,
		origin          VARCHAR(3)    NOT NULL,
		destination     VARCHAR(3)    NOT NULL,
		travel_date     VARCHAR(10)   NOT NULL,
		train_number    TEXT          NOT NULL DEFAULT '',
		price_paid      NUMERIC(10,2) NOT NULL DEFAULT 0,
		ticket_class    TEXT          NOT NULL DEFAULT '',
		current_price   NUMERIC(10,2),
		last_checked    TIMESTAMPTZ,
		train_not_found BOOLEAN       NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ   NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_trips_travel_date ON trips (travel_date);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	s.logger.Info("Table 'trips' is ready")
	return nil
}

// GetAll returns every trip ordered by travel date
func (s *PostgresTripStore) GetAll(ctx context.Context) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := s.db.SelectContext(ctx, &trips, `SELECT `+tripColumns+` FROM trips ORDER BY travel_date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// Get returns a single trip
func (s *PostgresTripStore) Get(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.GetContext(ctx, &trip, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trip %s: %w", id, err)
	}
	return &trip, nil
}

// Save inserts a new trip
func (s *PostgresTripStore) Save(ctx context.Context, trip *models.Trip) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO trips (`+tripColumns+`)
		VALUES (:id, :origin, :destination, :travel_date, :train_number, :price_paid, :ticket_class,
			:current_price, :last_checked, :train_not_found, :created_at)
	`, trip)
	if err != nil {
		return fmt.Errorf("failed to insert trip %s: %w", trip.ID, err)
	}
	return nil
}

// Update overwrites the mutable check state of a trip
func (s *PostgresTripStore) Update(ctx context.Context, trip *models.Trip) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE trips
		SET current_price = :current_price, last_checked = :last_checked, train_not_found = :train_not_found
		WHERE id = :id
	`, trip)
	if err != nil {
		return fmt.Errorf("failed to update trip %s: %w", trip.ID, err)
	}
	return expectOneRow(res)
}

// Delete removes a trip
func (s *PostgresTripStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip %s: %w", id, err)
	}
	return expectOneRow(res)
}

// Close closes the database connection
func (s *PostgresTripStore) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrTripNotFound
	}
	return nil
}
