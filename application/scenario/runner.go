package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"site_e2e/application/pages"
	"site_e2e/domain/entities"
	"site_e2e/domain/interfaces"
)

const (
	defaultTimeout = 60 * time.Second
	// screenshotTimeout bounds the capture after a failure, which may run
	// after the scenario deadline has passed
	screenshotTimeout = 10 * time.Second
)

// Options configures a Runner
type Options struct {
	// Parallel is the number of scenarios run at once
	Parallel int
	// Timeout bounds each scenario, session setup included
	Timeout time.Duration
	// ScreenshotDir receives a capture of the page of every failed scenario
	ScreenshotDir string
	// BaseURL is recorded in the report
	BaseURL string
}

// Runner executes scenarios, each in a fresh browser session
type Runner struct {
	browser interfaces.BrowserController
	catalog interfaces.SelectorCatalog
	opts    Options
	logger  *logrus.Logger
}

// NewRunner - creates new runner instance
func NewRunner(browser interfaces.BrowserController, catalog interfaces.SelectorCatalog, opts Options, logger *logrus.Logger) *Runner {
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		browser: browser,
		catalog: catalog,
		opts:    opts,
		logger:  logger,
	}
}

// Run - executes scenarios on a pool of workers. Outcomes keep the order of
// scenarios. Scenarios not started before ctx is done are reported as skipped
// and the cancellation is returned along with the partial report.
func (r *Runner) Run(ctx context.Context, scenarios []entities.Scenario) (entities.RunReport, error) {
	report := entities.RunReport{
		ID:        uuid.NewString(),
		BaseURL:   r.opts.BaseURL,
		Driver:    r.browser.Name(),
		StartedAt: time.Now(),
		Outcomes:  make([]entities.ScenarioOutcome, len(scenarios)),
	}

	r.logger.WithFields(logrus.Fields{
		"run":       report.ID,
		"scenarios": len(scenarios),
		"parallel":  r.opts.Parallel,
		"driver":    report.Driver,
	}).Info("run started")

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(r.opts.Parallel, max(len(scenarios), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report.Outcomes[i] = r.RunScenario(ctx, scenarios[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(scenarios); next++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(scenarios); i++ {
		report.Outcomes[i] = entities.ScenarioOutcome{
			Suite:   scenarios[i].Suite,
			Name:    scenarios[i].Name,
			Status:  entities.StatusSkipped,
			Message: "run canceled",
		}
	}
	report.FinishedAt = time.Now()

	passed, failed, skipped := report.Counts()
	r.logger.WithFields(logrus.Fields{
		"run":      report.ID,
		"passed":   passed,
		"failed":   failed,
		"skipped":  skipped,
		"duration": report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	}).Info("run finished")

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run canceled: %w", err)
	}
	return report, nil
}

// RunScenario - executes one scenario: navigate, run its steps, then assert.
// The first failed assertion ends the scenario.
func (r *Runner) RunScenario(ctx context.Context, sc entities.Scenario) entities.ScenarioOutcome {
	start := time.Now()
	out := entities.ScenarioOutcome{Suite: sc.Suite, Name: sc.Name}
	logger := r.logger.WithFields(logrus.Fields{"suite": sc.Suite, "scenario": sc.Name})

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	session, err := r.browser.NewSession(ctx)
	if err != nil {
		r.finish(&out, start, fail(entities.FailureSetup, err, "open browser session"), logger)
		return out
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WithError(err).Debug("close session")
		}
	}()

	c := &checker{session: session, catalog: r.catalog, logger: logger}
	err = r.execute(ctx, sc, c, &out, logger)

	out.Page = pageInfo(ctx, session)
	if err != nil && r.opts.ScreenshotDir != "" {
		out.Screenshot = r.screenshot(ctx, session, sc, logger)
	}
	r.finish(&out, start, err, logger)
	return out
}

func (r *Runner) execute(ctx context.Context, sc entities.Scenario, c *checker, out *entities.ScenarioOutcome, logger logrus.FieldLogger) error {
	if err := r.enter(ctx, sc, c, logger); err != nil {
		return err
	}

	for _, step := range sc.Steps {
		if err := r.step(ctx, step, c, logger); err != nil {
			return err
		}
	}

	if sc.Extra > 0 {
		if err := c.session.Wait(ctx, sc.Extra); err != nil {
			return classify(err, "wait")
		}
	}

	for _, a := range sc.Assertions {
		obs, err := c.check(ctx, a)
		out.Observations = append(out.Observations, obs...)
		for _, o := range obs {
			logger.WithField("observed", o.Value).Debug(o.Label)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// enter performs the scenario's goto, or a bare load of the site root
func (r *Runner) enter(ctx context.Context, sc entities.Scenario, c *checker, logger logrus.FieldLogger) error {
	if sc.Page == "" {
		status, err := c.session.Navigate(ctx, "/")
		if err != nil {
			return classify(err, "load /")
		}
		c.status = status
		return nil
	}

	page, err := pages.Bind(c.session, r.catalog, sc.Page, logger)
	if err != nil {
		return fail(entities.FailureSetup, err, "bind page %q", sc.Page)
	}
	res, err := page.Goto(ctx)
	if err != nil {
		return classify(err, "goto "+sc.Page)
	}
	c.status = res.Status
	return nil
}

// step - executes single scenario step
func (r *Runner) step(ctx context.Context, step entities.Action, c *checker, logger logrus.FieldLogger) error {
	logger.WithField("step", step.Type).Debug(step.Description)

	switch step.Type {
	case entities.ActionNavigate:
		status, err := c.session.Navigate(ctx, step.Path)
		if err != nil {
			return classify(err, "navigate to "+step.Path)
		}
		c.status = status
		return nil

	case entities.ActionClick:
		if step.Locator == "" && step.Selector == "" {
			return fail(entities.FailureSetup, nil, "click step needs a locator or a selector")
		}
		loc, err := c.locator(step.Locator, step.Selector)
		if err != nil {
			return err
		}
		if err := loc.Click(ctx); err != nil {
			return classify(err, "click "+loc.Spec().Role)
		}
		return nil

	case entities.ActionWait:
		if err := c.session.Wait(ctx, step.Duration); err != nil {
			return classify(err, "wait")
		}
		return nil

	default:
		return fail(entities.FailureSetup, nil, "unknown step %q", step.Type)
	}
}

func (r *Runner) finish(out *entities.ScenarioOutcome, start time.Time, err error, logger logrus.FieldLogger) {
	out.Duration = time.Since(start)
	if err == nil {
		out.Status = entities.StatusPassed
		logger.WithField("duration", out.Duration.Round(time.Millisecond)).Info("passed")
		return
	}

	var f *Failure
	if !errors.As(err, &f) {
		f = classify(err, "scenario")
	}
	out.Status = entities.StatusFailed
	out.Failure = f.Kind
	out.Message = f.Error()
	logger.WithFields(logrus.Fields{
		"failure":  f.Kind,
		"duration": out.Duration.Round(time.Millisecond),
	}).Warn(out.Message)
}

// screenshot captures the page of a failed scenario and returns the file path
func (r *Runner) screenshot(ctx context.Context, session interfaces.PageSession, sc entities.Scenario, logger logrus.FieldLogger) string {
	if err := os.MkdirAll(r.opts.ScreenshotDir, 0755); err != nil {
		logger.WithError(err).Warn("create screenshot directory")
		return ""
	}
	ext := ".png"
	if r.browser.Name() == "snapshot" {
		ext = ".html"
	}
	path := filepath.Join(r.opts.ScreenshotDir, fileName(sc.ID())+ext)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()
	if err := session.Screenshot(ctx, path); err != nil {
		logger.WithError(err).Warn("screenshot failed")
		return ""
	}
	return path
}

// pageInfo records where the scenario ended; it is best effort
func pageInfo(ctx context.Context, session interfaces.PageSession) entities.PageInfo {
	info := entities.PageInfo{URL: session.URL()}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if title, err := session.Title(ctx); err == nil {
		info.Title = title
	}
	if text, err := session.TextContent(ctx, "body"); err == nil {
		info.TextPreview = preview(text)
	}
	return info
}

func fileName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
