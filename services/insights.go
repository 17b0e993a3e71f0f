package services

import (
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"
)

// InsightService computes an overview of the tracked trips
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates a new InsightService
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Summarize counts trips by state and totals the savings available on upcoming ones
func (s *InsightService) Summarize(trips []*models.Trip, now time.Time) *models.TripSummary {
	summary := &models.TripSummary{}
	if len(trips) == 0 {
		s.logger.Debug("No trips to summarize")
		return summary
	}

	var best float64
	for _, t := range trips {
		summary.Total++
		if t.IsPast(now) {
			summary.Departed++
			continue
		}
		summary.Upcoming++

		if t.TrainNotFound {
			summary.NotFound++
		}
		if t.CurrentPrice == nil {
			summary.Unchecked++
			continue
		}
		if saving := t.Savings(); saving > 0 {
			summary.PriceDrops++
			summary.TotalSavings += saving
			if saving > best {
				best = saving
				summary.BestSaving = t
			}
		}
	}
	summary.TotalSavings = models.RoundCents(summary.TotalSavings)
	return summary
}
