package amtrak

import (
	"context"
	"fmt"
	"strings"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"
)

// DefaultMaxPages bounds how far the engine pages looking for a train
const DefaultMaxPages = 5

// DefaultPageSettle is the wait after activating the "next" control
const DefaultPageSettle = 3 * time.Second

// Pager gives the engine access to the current results page
type Pager interface {
	// Content returns the raw markup of the current page
	Content(ctx context.Context) (string, error)
	// Next activates the "later trains" control; false when there is none
	Next(ctx context.Context) (bool, error)
}

// Engine walks results pages collecting fares and looking for one train
type Engine struct {
	pager     Pager
	extractor Extractor
	settle    time.Duration
	logger    *utils.Logger
}

// NewEngine creates a scrape engine
func NewEngine(pager Pager, extractor Extractor, settle time.Duration, logger *utils.Logger) *Engine {
	return &Engine{pager: pager, extractor: extractor, settle: settle, logger: logger}
}

// Scrape collects fares from up to maxPages pages. When target is set and a
// card with exactly that train number is found, its fare is returned as
// MatchedPrice right away.
func (e *Engine) Scrape(ctx context.Context, target string, maxPages int) (*models.ScrapeResult, error) {
	target = strings.TrimSpace(target)
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	prices := NewPriceSet()
	result := &models.ScrapeResult{}

	for page := 1; page <= maxPages; page++ {
		raw, err := e.pager.Content(ctx)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to read results page: %w", err)
			}
			e.logger.Warn("  Page %d unreadable, stopping: %v", page, err)
			break
		}
		result.Pages = page

		extracted, err := e.extractor.Extract(raw)
		if err != nil {
			e.logger.Warn("  Page %d extraction failed: %v", page, err)
		}

		if extracted.Cards == 0 {
			// without cards, structure can't be trusted: take loose amounts and stop
			loose := e.extractor.Loose(raw)
			for _, v := range loose {
				prices.Add(v)
			}
			e.logger.Debug("  Page %d: no result cards, loose fallback found %d amounts", page, len(loose))
			break
		}

		for _, obs := range extracted.Observations {
			if !InFareRange(obs.Price) {
				continue
			}
			prices.Add(obs.Price)
			if target != "" && obs.ServiceID == target {
				matched := obs.Price
				result.MatchedPrice = &matched
				result.Prices = prices.Values()
				e.logger.Info("  Train %s found on page %d at $%.2f", target, page, matched)
				return result, nil
			}
		}
		e.logger.Debug("  Page %d: %d cards, %d distinct fares so far", page, extracted.Cards, prices.Len())

		if target == "" || page == maxPages {
			break
		}

		moved, err := e.pager.Next(ctx)
		if err != nil {
			e.logger.Warn("  Could not advance past page %d: %v", page, err)
			break
		}
		if !moved {
			break
		}
		if err := utils.Sleep(ctx, e.settle); err != nil {
			return nil, err
		}
	}

	result.Prices = prices.Values()
	if target != "" {
		e.logger.Info("  Train %s not found in %d page(s), %d fares observed", target, result.Pages, len(result.Prices))
	}
	return result, nil
}
