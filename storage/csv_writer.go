package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"amtrak-price-tracker/utils"
)

// CheckEntry is one raw check attempt as written to the CSV log
type CheckEntry struct {
	TripID        string
	Origin        string
	Destination   string
	TravelDate    string
	TrainNumber   string
	Prices        []float64
	MatchedPrice  *float64
	CurrentPrice  *float64
	TrainNotFound bool
	Error         string
	CheckedAt     time.Time
}

var checkHeader = []string{
	"checked_at", "trip_id", "origin", "destination", "travel_date", "train_number",
	"observed_prices", "matched_price", "current_price", "train_not_found", "error",
}

// CSVWriter appends check attempts to a CSV file
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
	mu       sync.Mutex
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// Record appends one row, writing the header when the file is new
func (w *CSVWriter) Record(entry CheckEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Ensure output directory exists
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	_, statErr := os.Stat(w.filePath)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(w.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if isNew {
		if err := writer.Write(checkHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	row := []string{
		entry.CheckedAt.Format(time.RFC3339),
		entry.TripID,
		entry.Origin,
		entry.Destination,
		entry.TravelDate,
		entry.TrainNumber,
		joinPrices(entry.Prices),
		formatOptional(entry.MatchedPrice),
		formatOptional(entry.CurrentPrice),
		strconv.FormatBool(entry.TrainNotFound),
		entry.Error,
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row for trip %s: %w", entry.TripID, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	w.logger.Debug("Check for trip %s written to %s", entry.TripID, w.filePath)
	return nil
}

func joinPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = strconv.FormatFloat(p, 'f', 2, 64)
	}
	return strings.Join(parts, ";")
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
