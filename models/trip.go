package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO layout trips are stored with
const DateLayout = "2006-01-02"

// FormDateLayout is the layout the booking form expects
const FormDateLayout = "01/02/2006"

// Trip represents a purchased booking whose fare is being tracked
type Trip struct {
	ID            string     `db:"id" json:"id"`
	Origin        string     `db:"origin" json:"origin"`
	Destination   string     `db:"destination" json:"destination"`
	TravelDate    string     `db:"travel_date" json:"travelDate"` // YYYY-MM-DD
	TrainNumber   string     `db:"train_number" json:"trainNumber,omitempty"`
	PricePaid     float64    `db:"price_paid" json:"pricePaid"`
	TicketClass   string     `db:"ticket_class" json:"ticketClass,omitempty"`
	CurrentPrice  *float64   `db:"current_price" json:"currentPrice"`
	LastChecked   *time.Time `db:"last_checked" json:"lastChecked"`
	TrainNotFound bool       `db:"train_not_found" json:"trainNotFound"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// Route returns a short "NYP → WAS" label
func (t *Trip) Route() string {
	return fmt.Sprintf("%s → %s", t.Origin, t.Destination)
}

// TravelDay parses the travel date in the given location
func (t *Trip) TravelDay(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(t.TravelDate), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid travel date %q: %w", t.TravelDate, err)
	}
	return d, nil
}

// IsPast reports whether the travel date is strictly before now's calendar date.
// Unparsable dates are never considered past.
func (t *Trip) IsPast(now time.Time) bool {
	day, err := t.TravelDay(now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.Before(today)
}

// Savings returns how much cheaper the current fare is than the paid one
func (t *Trip) Savings() float64 {
	if t.CurrentPrice == nil {
		return 0
	}
	return RoundCents(t.PricePaid - *t.CurrentPrice)
}

// Validate checks user supplied fields
func (t *Trip) Validate() error {
	if !isStationCode(t.Origin) {
		return fmt.Errorf("origin %q is not a 3-letter station code", t.Origin)
	}
	if !isStationCode(t.Destination) {
		return fmt.Errorf("destination %q is not a 3-letter station code", t.Destination)
	}
	if strings.EqualFold(t.Origin, t.Destination) {
		return fmt.Errorf("origin and destination are both %s", t.Origin)
	}
	if _, err := t.TravelDay(time.UTC); err != nil {
		return err
	}
	if t.PricePaid < 0 {
		return fmt.Errorf("price paid must not be negative")
	}
	return nil
}

// Normalize upper-cases station codes and trims free text fields
func (t *Trip) Normalize() {
	t.Origin = strings.ToUpper(strings.TrimSpace(t.Origin))
	t.Destination = strings.ToUpper(strings.TrimSpace(t.Destination))
	t.TravelDate = strings.TrimSpace(t.TravelDate)
	t.TrainNumber = strings.TrimPrefix(strings.TrimSpace(t.TrainNumber), "#")
	t.TicketClass = strings.TrimSpace(t.TicketClass)
}

// FormatTravelDate converts YYYY-MM-DD into the MM/DD/YYYY form field format
func FormatTravelDate(iso string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(iso))
	if err != nil {
		return "", fmt.Errorf("invalid travel date %q: %w", iso, err)
	}
	return d.Format(FormDateLayout), nil
}

// RoundCents rounds a currency amount to two decimals
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func isStationCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
