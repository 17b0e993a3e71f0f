package scheduler

import (
	"context"
	"sync"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/utils"
)

// FirstDelay is the wait between Start and the first scheduled sweep
const FirstDelay = time.Minute

// Sweeper runs one full pass over the tracked trips
type Sweeper interface {
	Sweep(ctx context.Context) (*models.SweepReport, error)
}

// Scheduler drives sweeps from a single recurring timer
type Scheduler struct {
	sweeper Sweeper
	logger  *utils.Logger

	firstDelay time.Duration
	unit       time.Duration // length of one interval step

	mu        sync.Mutex
	root      context.Context
	interval  int
	stopTimer context.CancelFunc
	timerDone chan struct{}
	timers    int // live timer goroutines, never above one

	sweeps sync.WaitGroup
}

// New creates a scheduler running every intervalHours once started
func New(sweeper Sweeper, intervalHours int, logger *utils.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = models.DefaultCheckInterval
	}
	return &Scheduler{
		sweeper:    sweeper,
		logger:     logger,
		firstDelay: FirstDelay,
		unit:       time.Hour,
		interval:   intervalHours,
	}
}

// Start arms the timer. Sweeps run under ctx; cancelling it ends them.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = ctx
	s.disarm()
	s.arm(s.firstDelay)
	s.logger.Info("Scheduler started: first sweep in %v, then every %dh", s.firstDelay, s.interval)
}

// Interval returns the current period in hours
func (s *Scheduler) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the period and re-arms the timer, the next sweep coming
// one full period from now. It reports whether anything changed.
func (s *Scheduler) SetInterval(hours int) bool {
	if hours <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if hours == s.interval {
		return false
	}
	s.interval = hours
	if s.stopTimer != nil {
		s.disarm()
		s.arm(s.period())
	}
	s.logger.Info("Check interval set to %dh", hours)
	return true
}

// Trigger starts a sweep in the background
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	root := s.rootContext()
	s.mu.Unlock()
	s.launch(root, "manual")
}

// RunNow runs a sweep and waits for it
func (s *Scheduler) RunNow(ctx context.Context) (*models.SweepReport, error) {
	return s.sweeper.Sweep(ctx)
}

// Stop disarms the timer and waits for sweeps it started to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.disarm()
	s.mu.Unlock()

	s.sweeps.Wait()
	s.logger.Debug("Scheduler stopped")
}

func (s *Scheduler) period() time.Duration {
	return time.Duration(s.interval) * s.unit
}

func (s *Scheduler) rootContext() context.Context {
	if s.root == nil {
		return context.Background()
	}
	return s.root
}

// arm starts the timer goroutine; s.mu must be held
func (s *Scheduler) arm(first time.Duration) {
	root := s.rootContext()
	ctx, cancel := context.WithCancel(root)
	done := make(chan struct{})
	s.stopTimer = cancel
	s.timerDone = done
	s.timers++

	go s.loop(ctx, root, first, s.period(), done)
}

// disarm stops the timer goroutine and waits for it to exit; s.mu must be held
func (s *Scheduler) disarm() {
	if s.stopTimer == nil {
		return
	}
	s.stopTimer()
	<-s.timerDone
	s.stopTimer = nil
	s.timerDone = nil
	s.timers--
}

func (s *Scheduler) loop(ctx, root context.Context, first, period time.Duration, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(first)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.launch(root, "scheduled")
			timer.Reset(period)
		}
	}
}

func (s *Scheduler) launch(ctx context.Context, reason string) {
	s.sweeps.Add(1)
	go func() {
		defer s.sweeps.Done()
		s.logger.Debug("Running %s sweep", reason)
		if _, err := s.sweeper.Sweep(ctx); err != nil {
			s.logger.Error("%s sweep failed: %v", reason, err)
		}
	}()
}
