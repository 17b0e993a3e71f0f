package amtrak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"amtrak-price-tracker/config"
	"amtrak-price-tracker/utils"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Controller owns the browser and the single tab sweeps run in
type Controller struct {
	cfg    *config.Config
	logger *utils.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	current       *Surface

	// browser hooks, swapped in tests
	launch func() error
	newTab func() (*Surface, error)
}

// NewController creates a controller; the browser starts on first Acquire
func NewController(cfg *config.Config, logger *utils.Logger) *Controller {
	c := &Controller{cfg: cfg, logger: logger}
	c.launch = c.startBrowser
	c.newTab = c.create
	return c
}

// startBrowser launches Chrome, or attaches to a running one when a debugger URL is set
func (c *Controller) startBrowser() error {
	if c.browserCtx != nil {
		return nil
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if c.cfg.DebuggerURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), c.cfg.DebuggerURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", !c.cfg.ShowBrowser),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("log-level", "3"), // suppress Chrome logs
			chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			chromedp.WindowSize(1280, 900),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("browser start failed: %w", err)
	}

	c.allocCancel = allocCancel
	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	return nil
}

// Acquire returns a tab showing the entry page with the agent injected. It
// reuses the current tab, else a tab already on the provider site, else opens one.
func (c *Controller) Acquire(ctx context.Context) (*Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.launch(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}

	s := c.current
	if s != nil && !s.alive(ctx) {
		c.logger.Warn("Tracked tab is gone, looking for another")
		s.close()
		s = nil
	}
	if s == nil {
		s = c.attachExisting(ctx)
	}
	if s == nil {
		var err error
		s, err = c.openTab()
		if err != nil {
			c.current = nil
			return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
		}
	}
	c.current = s

	if err := s.Navigate(ctx, c.cfg.EntryURL); err != nil {
		c.current = nil
		s.close()
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	s.Inject(ctx)
	return s, nil
}

func (c *Controller) attachExisting(ctx context.Context) *Surface {
	if c.browserCtx == nil {
		return nil
	}
	targets, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		c.logger.Debug("Listing tabs failed: %v", err)
		return nil
	}
	host := hostOf(c.cfg.EntryURL)
	for _, t := range targets {
		if t.Type != "page" || host == "" || hostOf(t.URL) != host {
			continue
		}
		tabCtx, cancel := chromedp.NewContext(c.browserCtx, chromedp.WithTargetID(t.TargetID))
		if err := chromedp.Run(tabCtx); err != nil {
			cancel()
			c.logger.Debug("Attaching to tab %s failed: %v", t.TargetID, err)
			continue
		}
		c.logger.Info("Reusing open tab on %s", t.URL)
		return c.newSurface(tabCtx, cancel, t.TargetID)
	}
	return nil
}

// openTab creates a tab, restarting the browser once if it has gone away
func (c *Controller) openTab() (*Surface, error) {
	s, err := c.newTab()
	if err == nil {
		return s, nil
	}
	c.logger.Warn("Opening a tab failed (%v), restarting the browser", err)
	c.stopBrowser()
	if err := c.launch(); err != nil {
		return nil, err
	}
	return c.newTab()
}

func (c *Controller) create() (*Surface, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("new tab failed: %w", err)
	}
	var id target.ID
	if t := chromedp.FromContext(tabCtx).Target; t != nil {
		id = t.TargetID
	}
	c.logger.Info("Opened a new tab for price checks")
	return c.newSurface(tabCtx, cancel, id), nil
}

func (c *Controller) newSurface(tabCtx context.Context, cancel context.CancelFunc, id target.ID) *Surface {
	return &Surface{
		ctx:         tabCtx,
		cancel:      cancel,
		targetID:    id,
		loadTimeout: c.cfg.LoadTimeout(),
		logger:      c.logger,
	}
}

// Close releases the tab and the browser
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.close()
		c.current = nil
	}
	c.stopBrowser()
}

func (c *Controller) stopBrowser() {
	if c.browserCancel != nil {
		c.browserCancel()
		c.browserCancel = nil
	}
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCancel = nil
	}
	c.browserCtx = nil
}

// Surface is one browser tab driven through the in-page agent
type Surface struct {
	ctx         context.Context // chromedp tab context
	cancel      context.CancelFunc
	targetID    target.ID
	loadTimeout time.Duration
	logger      *utils.Logger
}

// run executes actions in the tab, aborting (without closing the tab) when ctx ends
func (s *Surface) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *Surface) alive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var href string
	return s.run(ctx, chromedp.Location(&href)) == nil
}

// Navigate loads url and waits for it, giving up quietly after the load timeout
func (s *Surface) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	err := s.run(navCtx, chromedp.Navigate(url))
	if err != nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		// load events are unreliable on reactive pages
		s.logger.Warn("Load of %s not confirmed after %v, continuing", url, s.loadTimeout)
		return nil
	}
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// ExpectLoad starts listening for the next page load. wait blocks until it
// fires or the load timeout passes, and never fails; stop releases the listener.
func (s *Surface) ExpectLoad(ctx context.Context) (wait func(), stop func()) {
	loaded := make(chan struct{}, 1)
	lctx, cancel := context.WithCancel(s.ctx)
	chromedp.ListenTarget(lctx, func(ev interface{}) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			select {
			case loaded <- struct{}{}:
			default:
			}
		}
	})

	wait = func() {
		timer := time.NewTimer(s.loadTimeout)
		defer timer.Stop()
		select {
		case <-loaded:
			s.logger.Debug("  Results page loaded")
		case <-timer.C:
			s.logger.Warn("  No load event within %v, continuing", s.loadTimeout)
		case <-ctx.Done():
		}
	}
	return wait, cancel
}

// Inject loads the agent into the current document unless it is already
// resident. Failures are logged only.
func (s *Surface) Inject(ctx context.Context) {
	var present bool
	if err := s.run(ctx, chromedp.Evaluate(presenceExpression, &present)); err == nil && present {
		return
	}
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(agentSource, &ok)); err != nil {
		s.logger.Warn("  Agent injection failed (it may already be loaded): %v", err)
		return
	}
	s.logger.Debug("  Agent injected")
}

// Call implements Caller over Runtime.evaluate, re-injecting the agent if the
// page changed since the last call.
func (s *Surface) Call(ctx context.Context, capability string, args interface{}, out interface{}) error {
	expr, err := callExpression(capability, args)
	if err != nil {
		return err
	}
	s.Inject(ctx)

	var raw json.RawMessage
	err = s.run(ctx, chromedp.Evaluate(expr, &raw, awaitPromise))
	if err != nil {
		if isChannelClosed(err) {
			return fmt.Errorf("%w: %s: %v", ErrChannelClosed, capability, err)
		}
		return fmt.Errorf("agent %s: %w", capability, err)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", capability, err)
	}
	return nil
}

func (s *Surface) close() {
	if s.cancel != nil {
		s.cancel()
	}
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
