package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"site_e2e/domain/entities"
	"site_e2e/domain/interfaces"
)

// pollStep bounds each wait while a poll-mode settle watches the URL
const pollStep = 100 * time.Millisecond

// NavigationResult describes what a goto did
type NavigationResult struct {
	Status  int
	Clicked bool
	// ClickErr is set when a click entry found nothing or the click failed.
	// goto still completes its waits in that case.
	ClickErr error
	URL      string
	Waited   time.Duration
}

// NavigationError is returned when the root document could not be loaded
type NavigationError struct {
	Path string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.Path, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// Page is a page object bound to a session: named locators plus goto
type Page struct {
	spec    entities.PageSpec
	session interfaces.PageSession
	catalog interfaces.SelectorCatalog
	logger  logrus.FieldLogger
}

// Bind creates the named page object over session
func Bind(session interfaces.PageSession, catalog interfaces.SelectorCatalog, name string, logger logrus.FieldLogger) (*Page, error) {
	spec, ok := catalog.Page(name)
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Page{
		spec:    spec,
		session: session,
		catalog: catalog,
		logger:  logger.WithField("page", name),
	}, nil
}

// Name returns the page name
func (p *Page) Name() string { return p.spec.Name }

// Route returns the hash route, empty for the root page
func (p *Page) Route() string { return p.spec.Route }

// Session returns the underlying page session
func (p *Page) Session() interfaces.PageSession { return p.session }

// Locator returns the named locator of this page
func (p *Page) Locator(role string) (*Locator, error) {
	spec, ok := p.spec.Locator(role)
	if !ok {
		return nil, fmt.Errorf("page %q has no locator %q", p.spec.Name, role)
	}
	return NewLocator(p.session, spec, p.logger), nil
}

// Ref returns any catalog locator by dotted reference, bound to this page's session
func (p *Page) Ref(ref string) (*Locator, error) {
	spec, err := p.catalog.Ref(ref)
	if err != nil {
		return nil, err
	}
	return NewLocator(p.session, spec, p.logger), nil
}

// Goto performs the page's entry action and its settle waits.
// Only a failed root load is an error; a click that finds nothing is
// reported in the result and the waits still run.
func (p *Page) Goto(ctx context.Context) (NavigationResult, error) {
	settle := p.catalog.SettleSpec()
	var res NavigationResult

	status, err := p.session.Navigate(ctx, "/")
	if err != nil {
		return res, &NavigationError{Path: "/", Err: err}
	}
	res.Status = status

	switch p.spec.Entry.Kind {
	case entities.EntryClick:
		waited, err := p.settle(ctx, settle.BeforeClick, entities.SettleFixed)
		res.Waited += waited
		if err != nil {
			return res, err
		}

		res.ClickErr = p.click(ctx, p.spec.Entry.Via)
		res.Clicked = res.ClickErr == nil

		waited, err = p.settle(ctx, settle.AfterClick, settle.Mode)
		res.Waited += waited
		if err != nil {
			return res, err
		}
	default:
		waited, err := p.settle(ctx, settle.Load, settle.Mode)
		res.Waited += waited
		if err != nil {
			return res, err
		}
	}

	res.URL = p.session.URL()
	p.logger.WithFields(logrus.Fields{
		"status":  res.Status,
		"url":     res.URL,
		"clicked": res.Clicked,
	}).Debug("goto complete")
	return res, nil
}

func (p *Page) click(ctx context.Context, via string) error {
	loc, err := p.Ref(via)
	if err != nil {
		return err
	}
	err = loc.Click(ctx)
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrNoMatch):
		p.logger.WithField("via", via).Warn("navigation link not found, waiting anyway")
	default:
		p.logger.WithError(err).WithField("via", via).Warn("navigation click failed, waiting anyway")
	}
	return err
}

// settle waits d. In poll mode it returns early once the URL carries the
// page route. Elapsed time is summed from the waits themselves so a session
// whose clock does not move still terminates.
func (p *Page) settle(ctx context.Context, d time.Duration, mode entities.SettleMode) (time.Duration, error) {
	if d <= 0 {
		return 0, ctx.Err()
	}
	if mode != entities.SettlePoll || p.spec.Route == "" {
		return d, p.session.Wait(ctx, d)
	}

	var waited time.Duration
	for waited < d {
		if strings.Contains(p.session.URL(), p.spec.Route) {
			return waited, nil
		}
		step := min(pollStep, d-waited)
		if err := p.session.Wait(ctx, step); err != nil {
			return waited, err
		}
		waited += step
	}
	return waited, nil
}
