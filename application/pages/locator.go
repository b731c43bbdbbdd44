// Package pages is the locator resolution layer: page objects whose named
// locators resolve lazily against whatever document the session shows.
package pages

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"site_e2e/domain/entities"
	"site_e2e/domain/interfaces"
)

// Locator is a deferred query. Nothing is evaluated until it is asked for a
// count, text, visibility or click, and every ask resolves again.
type Locator struct {
	session interfaces.PageSession
	spec    entities.LocatorSpec
	logger  logrus.FieldLogger
}

// NewLocator binds spec to a page session
func NewLocator(session interfaces.PageSession, spec entities.LocatorSpec, logger logrus.FieldLogger) *Locator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Locator{
		session: session,
		spec:    spec,
		logger:  logger.WithField("locator", spec.Role),
	}
}

// Raw wraps a single selector in a locator
func Raw(session interfaces.PageSession, selector string, logger logrus.FieldLogger) *Locator {
	return NewLocator(session, entities.LocatorSpec{Role: selector, Selectors: []string{selector}}, logger)
}

// Spec returns the locator definition
func (l *Locator) Spec() entities.LocatorSpec {
	return l.spec
}

// Resolve walks the alternatives in order and settles on the first one that
// matches anything. Alternatives the driver rejects are skipped. Zero matches
// is not an error; only a list with no usable selector at all is.
func (l *Locator) Resolve(ctx context.Context) (entities.Resolution, error) {
	res := entities.Resolution{Index: -1}
	valid := 0

	for i, sel := range l.spec.Selectors {
		count, err := l.session.Count(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			l.logger.WithError(err).WithField("selector", sel).Debug("selector rejected, trying next alternative")
			res.Skipped = append(res.Skipped, sel)
			continue
		}
		valid++
		if count == 0 {
			continue
		}

		res.Selector = sel
		res.Index = i
		res.Count = count
		if l.spec.First {
			res.Count = 1
		}
		return res, nil
	}

	if valid == 0 {
		return res, fmt.Errorf("%s: %w", l.spec.Role, entities.ErrInvalidSelector)
	}
	l.logger.Debug("no alternative matched")
	return res, nil
}

// Count returns the size of the resolved set
func (l *Locator) Count(ctx context.Context) (int, error) {
	res, err := l.Resolve(ctx)
	return res.Count, err
}

// TextContent returns the text of the first resolved element, or "" on a miss
func (l *Locator) TextContent(ctx context.Context) (string, error) {
	res, err := l.Resolve(ctx)
	if err != nil || !res.Matched() {
		return "", err
	}
	return l.session.TextContent(ctx, res.Selector)
}

// IsVisible reports whether the first resolved element becomes visible
// within timeout. On a miss it waits for any usable alternative to appear,
// then resolves again, so late client-side rendering is still honoured.
func (l *Locator) IsVisible(ctx context.Context, timeout time.Duration) (bool, error) {
	timeout = max(timeout, minVisibilityWait)
	deadline := time.Now().Add(timeout)

	res, err := l.Resolve(ctx)
	if err != nil {
		return false, err
	}
	if res.Matched() {
		return l.session.IsVisible(ctx, res.Selector, timeout)
	}

	usable := make([]string, 0, len(l.spec.Selectors))
	for _, sel := range l.spec.Selectors {
		if !slices.Contains(res.Skipped, sel) {
			usable = append(usable, sel)
		}
	}
	appeared, err := l.session.IsVisible(ctx, strings.Join(usable, ", "), timeout)
	if err != nil || !appeared {
		return false, err
	}

	res, err = l.Resolve(ctx)
	if err != nil || !res.Matched() {
		return false, err
	}
	return l.session.IsVisible(ctx, res.Selector, max(time.Until(deadline), minVisibilityWait))
}

// Click clicks the first resolved element; ErrNoMatch when nothing resolved
func (l *Locator) Click(ctx context.Context) error {
	res, err := l.Resolve(ctx)
	if err != nil {
		return err
	}
	if !res.Matched() {
		return fmt.Errorf("%s: %w", l.spec.Role, entities.ErrNoMatch)
	}
	return l.session.Click(ctx, res.Selector)
}

// Playwright treats a zero timeout as "wait forever"
const minVisibilityWait = time.Millisecond
