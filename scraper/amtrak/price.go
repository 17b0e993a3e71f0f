package amtrak

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Fares outside this closed range are not rail fares (fees, totals, promos)
const (
	MinFare = 20.0
	MaxFare = 2000.0
)

var (
	// $1,234.56 / $85 / $ 85.00
	amountRegex = regexp.MustCompile(`\$\s?((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?)`)
	// anything dollar-ish, used when the page has no recognizable cards
	looseAmountRegex = regexp.MustCompile(`\$\s?([\d,]+(?:\.\d{1,2})?)`)
)

// InFareRange reports whether v passes the fare sanity filter
func InFareRange(v float64) bool {
	return !math.IsNaN(v) && v >= MinFare && v <= MaxFare
}

// parseAmount converts "1,234.50" into 1234.5
func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// firstAmount returns the first well-formed dollar amount in text
func firstAmount(text string) (float64, bool) {
	for _, m := range amountRegex.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			return v, true
		}
	}
	return 0, false
}

// PriceSet collects fares, dropping out-of-range amounts and exact duplicates
type PriceSet struct {
	seen   map[float64]struct{}
	values []float64
}

// NewPriceSet creates an empty set
func NewPriceSet() *PriceSet {
	return &PriceSet{seen: make(map[float64]struct{})}
}

// Add records v and reports whether it was new and in range
func (s *PriceSet) Add(v float64) bool {
	if !InFareRange(v) {
		return false
	}
	if _, dup := s.seen[v]; dup {
		return false
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// Len returns the number of distinct fares
func (s *PriceSet) Len() int {
	return len(s.values)
}

// Values returns the fares in ascending order
func (s *PriceSet) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	sort.Float64s(out)
	return out
}

// Min returns the lowest fare, false when the set is empty
func (s *PriceSet) Min() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	min := s.values[0]
	for _, v := range s.values[1:] {
		if v < min {
			min = v
		}
	}
	return min, true
}
