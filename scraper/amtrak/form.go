package amtrak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"
)

// State is a step of the search form automation
type State int

const (
	StateInit State = iota
	StateOriginFilled
	StateOriginConfirmed
	StateDestinationFilled
	StateDestinationConfirmed
	StateDateFilled
	StateDateConfirmed
	StateSubmitted
	StateFailed
)

var stateNames = map[State]string{
	StateInit:                 "Init",
	StateOriginFilled:         "OriginFilled",
	StateOriginConfirmed:      "OriginConfirmed",
	StateDestinationFilled:    "DestinationFilled",
	StateDestinationConfirmed: "DestinationConfirmed",
	StateDateFilled:           "DateFilled",
	StateDateConfirmed:        "DateConfirmed",
	StateSubmitted:            "Submitted",
	StateFailed:               "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Timings are the settle waits between form steps. The booking form validates
// asynchronously and exposes no readiness signal, so where no predicate can be
// polled these are plain pauses.
type Timings struct {
	InitialLoad   time.Duration // upper bound waiting for the origin field
	FieldSettle   time.Duration // upper bound waiting for station suggestions
	ConfirmSettle time.Duration // after picking a suggestion
	DateSettle    time.Duration // after confirming the date
	SubmitSettle  time.Duration // before pressing search
	ResultsLoad   time.Duration // upper bound waiting for fares after submit
	Poll          time.Duration
}

// DefaultTimings returns the waits tuned against the live site
func DefaultTimings() Timings {
	return Timings{
		InitialLoad:   3000 * time.Millisecond,
		FieldSettle:   1500 * time.Millisecond,
		ConfirmSettle: 500 * time.Millisecond,
		DateSettle:    1000 * time.Millisecond,
		SubmitSettle:  2000 * time.Millisecond,
		ResultsLoad:   8000 * time.Millisecond,
		Poll:          250 * time.Millisecond,
	}
}

// FormSelectors locate the booking form controls
type FormSelectors struct {
	Origin       []string
	Destination  []string
	Date         []string
	SubmitLabels []string
}

// DefaultFormSelectors returns stable ids first, then looser fallbacks
func DefaultFormSelectors() FormSelectors {
	return FormSelectors{
		Origin: []string{
			"#am-form-field-tripOrigin",
			`input[data-julie="departure_station"]`,
			`input[aria-label*="From"]`,
			`input[name*="origin" i]`,
		},
		Destination: []string{
			"#am-form-field-tripDestination",
			`input[data-julie="arrival_station"]`,
			`input[aria-label*="To"]`,
			`input[name*="destination" i]`,
		},
		Date: []string{
			"#am-form-field-departDate",
			`input[data-julie="departure_date"]`,
			`input[aria-label*="Depart"]`,
			`input[name*="depart" i]`,
		},
		SubmitLabels: []string{"find trains"},
	}
}

// StepError reports where the automation failed
type StepError struct {
	State State // last state reached before failing
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("form automation failed after %s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FormAutomator drives the in-page agent through the search form
type FormAutomator struct {
	caller    Caller
	timings   Timings
	selectors FormSelectors
	logger    *utils.Logger

	state   State
	history []State
}

// NewFormAutomator creates an automator using the default selectors
func NewFormAutomator(caller Caller, timings Timings, logger *utils.Logger) *FormAutomator {
	return &FormAutomator{
		caller:    caller,
		timings:   timings,
		selectors: DefaultFormSelectors(),
		logger:    logger,
		state:     StateInit,
		history:   []State{StateInit},
	}
}

// WithSelectors overrides the form selectors
func (f *FormAutomator) WithSelectors(sel FormSelectors) *FormAutomator {
	f.selectors = sel
	return f
}

// State returns the current state
func (f *FormAutomator) State() State {
	return f.state
}

// History returns every state visited in order
func (f *FormAutomator) History() []State {
	out := make([]State, len(f.history))
	copy(out, f.history)
	return out
}

// FillAndSearch runs the automation and reports it in protocol form
func (f *FormAutomator) FillAndSearch(ctx context.Context, trip *models.Trip) models.SearchResponse {
	if err := f.Run(ctx, trip); err != nil {
		return models.SearchResponse{Success: false, Error: err.Error()}
	}
	return models.SearchResponse{Success: true}
}

// Run fills origin, destination and date, then submits the search. Reaching
// Submitted means the click was dispatched; whether the site accepted it is
// only visible on the results page.
func (f *FormAutomator) Run(ctx context.Context, trip *models.Trip) error {
	f.state = StateInit
	f.history = []State{StateInit}

	date, err := models.FormatTravelDate(trip.TravelDate)
	if err != nil {
		return f.fail(err)
	}

	f.waitForForm(ctx)

	if err := f.fillStation(ctx, "origin", f.selectors.Origin, trip.Origin, StateOriginFilled, StateOriginConfirmed); err != nil {
		return err
	}
	if err := f.fillStation(ctx, "destination", f.selectors.Destination, trip.Destination, StateDestinationFilled, StateDestinationConfirmed); err != nil {
		return err
	}
	if err := f.fillDate(ctx, date); err != nil {
		return err
	}

	if err := utils.Sleep(ctx, f.timings.SubmitSettle); err != nil {
		return f.fail(err)
	}
	return f.submit(ctx)
}

func (f *FormAutomator) waitForForm(ctx context.Context) {
	args := probeArgs{Origin: f.selectors.Origin}
	ready, _ := utils.WaitFor(ctx, f.timings.InitialLoad, f.timings.Poll, func(ctx context.Context) (bool, error) {
		var res probeResult
		if err := f.caller.Call(ctx, capProbe, args, &res); err != nil {
			return false, err
		}
		return res.Origin, nil
	})
	if !ready {
		f.logger.Debug("  Origin field not seen within %v, trying anyway", f.timings.InitialLoad)
	}
}

func (f *FormAutomator) fillStation(ctx context.Context, name string, selectors []string, value string, filled, confirmed State) error {
	var set fieldResult
	if err := f.caller.Call(ctx, capSetField, fieldArgs{Selectors: selectors, Value: value}, &set); err != nil {
		return f.fail(fmt.Errorf("set %s: %w", name, err))
	}
	if !set.Found {
		return f.fail(fmt.Errorf("%w: %s", ErrFieldNotFound, name))
	}
	f.advance(filled)

	// suggestions render asynchronously; stop waiting as soon as they show
	if set.Options == 0 {
		_, err := utils.WaitFor(ctx, f.timings.FieldSettle, f.timings.Poll, func(ctx context.Context) (bool, error) {
			var res fieldResult
			if err := f.caller.Call(ctx, capOptions, nil, &res); err != nil {
				return false, err
			}
			return res.Options > 0, nil
		})
		if err != nil {
			return f.fail(err)
		}
	}

	var conf fieldResult
	if err := f.caller.Call(ctx, capConfirmField, fieldArgs{Selectors: selectors}, &conf); err != nil {
		return f.fail(fmt.Errorf("confirm %s: %w", name, err))
	}
	if !conf.Found {
		return f.fail(fmt.Errorf("%w: %s", ErrFieldNotFound, name))
	}
	f.logger.Debug("  %s set to %s (suggestion picked: %v)", name, value, conf.Selected)
	f.advance(confirmed)

	if err := utils.Sleep(ctx, f.timings.ConfirmSettle); err != nil {
		return f.fail(err)
	}
	return nil
}

func (f *FormAutomator) fillDate(ctx context.Context, date string) error {
	var set fieldResult
	if err := f.caller.Call(ctx, capSetField, fieldArgs{Selectors: f.selectors.Date, Value: date}, &set); err != nil {
		return f.fail(fmt.Errorf("set date: %w", err))
	}
	if !set.Found {
		return f.fail(fmt.Errorf("%w: date", ErrFieldNotFound))
	}
	f.advance(StateDateFilled)

	if err := utils.Sleep(ctx, f.timings.ConfirmSettle); err != nil {
		return f.fail(err)
	}

	var res dateResult
	if err := f.caller.Call(ctx, capConfirmDate, nil, &res); err != nil {
		return f.fail(fmt.Errorf("confirm date: %w", err))
	}
	switch {
	case res.Confirmed:
		f.logger.Debug("  Date %s confirmed via %q", date, res.Label)
	case res.Overlay:
		f.logger.Debug("  Date %s: calendar dismissed without a confirm control", date)
	}
	f.advance(StateDateConfirmed)

	if err := utils.Sleep(ctx, f.timings.DateSettle); err != nil {
		return f.fail(err)
	}
	return nil
}

func (f *FormAutomator) submit(ctx context.Context) error {
	var res submitResult
	err := f.caller.Call(ctx, capSubmit, submitArgs{Labels: f.selectors.SubmitLabels}, &res)
	if errors.Is(err, ErrChannelClosed) {
		f.logger.Debug("  Search navigated before replying, treating as submitted")
		f.advance(StateSubmitted)
		return nil
	}
	if err != nil {
		return f.fail(fmt.Errorf("submit: %w", err))
	}
	if !res.Found {
		return f.fail(fmt.Errorf("%w: search control missing", ErrActionBlocked))
	}
	if res.Disabled {
		return f.fail(fmt.Errorf("%w: search control still disabled", ErrActionBlocked))
	}
	if res.Forced {
		f.logger.Debug("  Search control was disabled, forced it on")
	}
	f.advance(StateSubmitted)
	return nil
}

func (f *FormAutomator) advance(s State) {
	f.state = s
	f.history = append(f.history, s)
}

func (f *FormAutomator) fail(err error) error {
	last := f.state
	f.advance(StateFailed)
	return &StepError{State: last, Err: err}
}
