package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"site_e2e/domain/interfaces"
)

// Options configures a browser controller
type Options struct {
	BaseURL    string
	Engine     string // chromium, firefox or webkit
	Headless   bool
	SlowMo     time.Duration
	NavTimeout time.Duration
	Width      int
	Height     int
}

func (o Options) withDefaults() Options {
	if o.Engine == "" {
		o.Engine = "chromium"
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = 30 * time.Second
	}
	if o.Width == 0 {
		o.Width = 1280
	}
	if o.Height == 0 {
		o.Height = 720
	}
	return o
}

type browserController struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	logger  *logrus.Logger
}

// NewBrowserController - starts Playwright and launches the configured engine
func NewBrowserController(opts Options, logger *logrus.Logger) (interfaces.BrowserController, error) {
	opts = opts.withDefaults()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch opts.Engine {
	case "chromium":
		browserType = pw.Chromium
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unknown browser engine %q", opts.Engine)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	if opts.Engine == "chromium" {
		launch.Args = []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
		}
	}

	browser, err := browserType.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"engine":   opts.Engine,
		"headless": opts.Headless,
		"version":  browser.Version(),
	}).Debug("browser launched")

	return &browserController{
		pw:      pw,
		browser: browser,
		opts:    opts,
		logger:  logger,
	}, nil
}

// Name - returns the driver name
func (b *browserController) Name() string { return "playwright" }

// NewSession - opens a page in a fresh browser context so scenarios share no state
func (b *browserController) NewSession(ctx context.Context) (interfaces.PageSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contextOptions := playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(b.opts.BaseURL),
		Viewport: &playwright.Size{
			Width:  b.opts.Width,
			Height: b.opts.Height,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	}

	browserCtx, err := b.browser.NewContext(contextOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	timeoutMS := float64(b.opts.NavTimeout.Milliseconds())
	page.SetDefaultTimeout(timeoutMS)
	page.SetDefaultNavigationTimeout(timeoutMS)

	page.OnDialog(func(dialog playwright.Dialog) {
		_ = dialog.Dismiss()
	})

	return &pageSession{
		context: browserCtx,
		page:    page,
		timeout: b.opts.NavTimeout,
	}, nil
}

// Close - closes the browser and stops Playwright
func (b *browserController) Close() error {
	var closeErr error

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to stop playwright: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to stop playwright: %w", err)
			}
		}
		b.pw = nil
	}

	return closeErr
}

type pageSession struct {
	context playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
}

// Navigate - navigates to a path relative to the base URL
func (p *pageSession) Navigate(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	resp, err := p.page.Goto(path, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.timeout.Milliseconds())),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to navigate to %s: %w", path, err)
	}
	if resp == nil {
		// same-document navigation produces no response
		return 0, nil
	}
	return resp.Status(), nil
}

// Click - clicks on the first element matching selector
func (p *pageSession) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// Count - counts elements matching selector without waiting
func (p *pageSession) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.page.Locator(selector).Count()
}

// TextContent - returns text of the first match, "" when nothing matches
func (p *pageSession) TextContent(ctx context.Context, selector string) (string, error) {
	// TextContent auto-waits for an element, so a miss must be detected first
	count, err := p.Count(ctx, selector)
	if err != nil || count == 0 {
		return "", err
	}
	return p.page.Locator(selector).First().TextContent()
}

// IsVisible - waits up to timeout for the first match to become visible
func (p *pageSession) IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	return false, err
}

// URL - returns the current page URL
func (p *pageSession) URL() string {
	return p.page.URL()
}

// Title - returns the current page title
func (p *pageSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Title()
}

// Wait - waits for d unless ctx ends first
func (p *pageSession) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

// Screenshot - takes a full-page screenshot
func (p *pageSession) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Close - closes the page and its context
func (p *pageSession) Close() error {
	if p.context == nil {
		return nil
	}
	err := p.context.Close()
	p.context = nil
	if err != nil && !isClosedErr(err) {
		return fmt.Errorf("failed to close context: %w", err)
	}
	return nil
}

// InstallBrowsers - downloads the Playwright driver and browsers
func InstallBrowsers(browsers []string) error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: browsers,
		Verbose:  true,
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isClosedErr - reports errors from closing something already closed
func isClosedErr(err error) bool {
	if errors.Is(err, playwright.ErrTargetClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}
