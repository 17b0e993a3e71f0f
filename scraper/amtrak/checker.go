package amtrak

import (
	"context"
	"time"

	"amtrak-price-tracker/config"
	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"
)

// Checker runs one full price check for a trip against the live site
type Checker struct {
	controller *Controller
	extractor  Extractor
	timings    Timings
	maxPages   int
	pageSettle time.Duration
	logger     *utils.Logger
}

// NewChecker creates a checker driving the controller's browser
func NewChecker(cfg *config.Config, controller *Controller, logger *utils.Logger) *Checker {
	return &Checker{
		controller: controller,
		extractor:  NewHTMLExtractor(),
		timings:    DefaultTimings(),
		maxPages:   cfg.MaxPages,
		pageSettle: DefaultPageSettle,
		logger:     logger,
	}
}

// Check fills the search form for trip, submits it and scrapes the results
func (c *Checker) Check(ctx context.Context, trip *models.Trip) (*models.ScrapeResult, error) {
	surface, err := c.controller.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	// arm the listener before the click that navigates
	waitResults, stopListening := surface.ExpectLoad(ctx)
	defer stopListening()

	form := NewFormAutomator(surface, c.timings, c.logger)
	if err := form.Run(ctx, trip); err != nil {
		return nil, err
	}
	waitResults()

	// results render after load; poll until fares show up
	_, err = utils.WaitFor(ctx, c.timings.ResultsLoad, c.timings.Poll, func(ctx context.Context) (bool, error) {
		var res resultsProbe
		if err := surface.Call(ctx, capResults, nil, &res); err != nil {
			return false, err
		}
		return res.Prices > 0, nil
	})
	if err != nil {
		return nil, err
	}

	engine := NewEngine(NewAgentPager(surface), c.extractor, c.pageSettle, c.logger)
	return engine.Scrape(ctx, trip.TrainNumber, c.maxPages)
}

// Close shuts the browser down
func (c *Checker) Close() {
	c.controller.Close()
}
