package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"site_e2e/domain/interfaces"
)

// navigationStatusJS reads the main document's HTTP status from Navigation Timing
const navigationStatusJS = `() => {
	const entry = performance.getEntriesByType('navigation')[0];
	return entry && entry.responseStatus ? entry.responseStatus : 0;
}`

// RodController drives Chromium over CDP with Rod
type RodController struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	opts     Options
	logger   *logrus.Logger
}

// NewRodController - launches a Rod-managed Chromium
func NewRodController(opts Options, logger *logrus.Logger) (*RodController, error) {
	opts = opts.withDefaults()
	if opts.Engine != "chromium" {
		return nil, fmt.Errorf("rod driver supports chromium only, got %q", opts.Engine)
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-dev-shm-usage").
		Set("no-sandbox")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if opts.SlowMo > 0 {
		browser = browser.SlowMotion(opts.SlowMo)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logger.WithField("control_url", u).Debug("rod browser connected")

	return &RodController{
		launcher: l,
		browser:  browser,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Name - returns the driver name
func (r *RodController) Name() string { return "rod" }

// NewSession - opens a page in an incognito context
func (r *RodController) NewSession(ctx context.Context) (interfaces.PageSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.opts.Width,
		Height:            r.opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &rodSession{
		incognito: incognito,
		page:      page,
		baseURL:   strings.TrimRight(r.opts.BaseURL, "/"),
		timeout:   r.opts.NavTimeout,
	}, nil
}

// Close - closes the browser and kills the launched process
func (r *RodController) Close() error {
	var closeErr error
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return closeErr
}

type rodSession struct {
	incognito *rod.Browser
	page      *rod.Page
	baseURL   string
	timeout   time.Duration
}

func (s *rodSession) bounded(ctx context.Context, d time.Duration) (*rod.Page, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(ctx, d)
	return s.page.Context(tctx), cancel
}

// Navigate - navigates and waits for DOMContentLoaded
func (s *rodSession) Navigate(ctx context.Context, path string) (int, error) {
	page, cancel := s.bounded(ctx, s.timeout)
	defer cancel()

	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(s.baseURL + path); err != nil {
		return 0, fmt.Errorf("failed to navigate to %s: %w", path, err)
	}
	wait()

	res, err := page.Eval(navigationStatusJS)
	if err != nil {
		return 0, fmt.Errorf("failed to read navigation status: %w", err)
	}
	return res.Value.Int(), nil
}

// Click - clicks on the first element matching selector
func (s *rodSession) Click(ctx context.Context, selector string) error {
	page, cancel := s.bounded(ctx, s.timeout)
	defer cancel()

	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// Count - counts elements matching selector without waiting
func (s *rodSession) Count(ctx context.Context, selector string) (int, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// TextContent - returns textContent of the first match, "" when nothing matches
func (s *rodSession) TextContent(ctx context.Context, selector string) (string, error) {
	count, err := s.Count(ctx, selector)
	if err != nil || count == 0 {
		return "", err
	}

	page, cancel := s.bounded(ctx, s.timeout)
	defer cancel()

	el, err := page.Element(selector)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(`() => this.textContent`)
	if err != nil {
		return "", err
	}
	return res.Value.String(), nil
}

// IsVisible - waits up to timeout for the first match to become visible
func (s *rodSession) IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	page, cancel := s.bounded(ctx, timeout)
	defer cancel()

	el, err := page.Element(selector)
	if err == nil {
		err = el.WaitVisible()
	}
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}

// URL - returns the current page URL
func (s *rodSession) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Title - returns the current page title
func (s *rodSession) Title(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// Wait - waits for d unless ctx ends first
func (s *rodSession) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

// Screenshot - takes a full-page screenshot
func (s *rodSession) Screenshot(ctx context.Context, path string) error {
	data, err := s.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Close - closes the page and disposes its incognito context
func (s *rodSession) Close() error {
	if s.incognito == nil {
		return nil
	}
	err := s.incognito.Close()
	s.incognito = nil
	return err
}
