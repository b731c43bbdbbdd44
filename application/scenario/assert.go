package scenario

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"site_e2e/application/pages"
	"site_e2e/domain/entities"
	"site_e2e/domain/interfaces"
)

// defaultVisibleTimeout matches the usual expect timeout of browser test runners
const defaultVisibleTimeout = 5 * time.Second

// Failure is a classified scenario failure
type Failure struct {
	Kind entities.FailureKind
	Msg  string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Msg, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind entities.FailureKind, err error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// classify maps an error from a locator or session onto the failure taxonomy
func classify(err error, what string) *Failure {
	var f *Failure
	switch {
	case errors.As(err, &f):
		return f
	case errors.Is(err, entities.ErrNoMatch):
		return fail(entities.FailureLocatorMiss, err, "%s matched no elements", what)
	case errors.Is(err, entities.ErrInvalidSelector):
		return fail(entities.FailureSetup, err, "%s has no valid selector", what)
	case errors.Is(err, context.DeadlineExceeded):
		return fail(entities.FailureNavigation, err, "%s timed out", what)
	default:
		return fail(entities.FailureNavigation, err, "%s failed", what)
	}
}

// checker evaluates assertions against the current state of one session
type checker struct {
	session interfaces.PageSession
	catalog interfaces.SelectorCatalog
	logger  logrus.FieldLogger
	// status of the last document load
	status int
}

// locator returns the locator an assertion or step targets
func (c *checker) locator(target, selector string) (*pages.Locator, error) {
	if selector != "" {
		return pages.Raw(c.session, selector, c.logger), nil
	}
	spec, err := c.catalog.Ref(target)
	if err != nil {
		return nil, fail(entities.FailureSetup, err, "unknown locator %q", target)
	}
	return pages.NewLocator(c.session, spec, c.logger), nil
}

func targetName(a entities.Assertion) string {
	if a.Selector != "" {
		return a.Selector
	}
	return a.Target
}

// resolve resolves the target and records which alternative won
func (c *checker) resolve(ctx context.Context, a entities.Assertion) (*pages.Locator, entities.Resolution, []entities.Observation, error) {
	loc, err := c.locator(a.Target, a.Selector)
	if err != nil {
		return nil, entities.Resolution{}, nil, err
	}
	res, err := loc.Resolve(ctx)
	if err != nil {
		return nil, res, nil, classify(err, targetName(a))
	}

	name := targetName(a)
	obs := []entities.Observation{{Label: name + " count", Value: strconv.Itoa(res.Count)}}
	if res.Index > 0 {
		// an earlier alternative found nothing; the markup may have drifted
		obs = append(obs, entities.Observation{Label: name + " resolved by", Value: res.Selector})
		c.logger.WithFields(logrus.Fields{"locator": name, "selector": res.Selector}).Warn("resolved by fallback alternative")
	}
	return loc, res, obs, nil
}

// check evaluates one assertion. The observations are returned even when the
// assertion fails.
func (c *checker) check(ctx context.Context, a entities.Assertion) ([]entities.Observation, error) {
	switch a.Kind {
	case entities.AssertStatus:
		want := 200
		if a.Value != "" {
			n, err := strconv.Atoi(a.Value)
			if err != nil {
				return nil, fail(entities.FailureSetup, err, "status assertion wants a number, got %q", a.Value)
			}
			want = n
		}
		obs := []entities.Observation{{Label: "status", Value: strconv.Itoa(c.status)}}
		if c.status != want {
			return obs, fail(entities.FailureNavigation, nil, "response status %d, want %d", c.status, want)
		}
		return obs, nil

	case entities.AssertTitleMatches, entities.AssertTitleNotEmpty:
		title, err := c.session.Title(ctx)
		if err != nil {
			return nil, classify(err, "title")
		}
		obs := []entities.Observation{{Label: "title", Value: title}}
		if a.Kind == entities.AssertTitleNotEmpty {
			if title == "" {
				return obs, fail(entities.FailureAssertion, nil, "page title is empty")
			}
			return obs, nil
		}
		re, err := regexp.Compile(a.Pattern)
		if err != nil {
			return obs, fail(entities.FailureSetup, err, "bad title pattern")
		}
		if !re.MatchString(title) {
			return obs, fail(entities.FailureAssertion, nil, "title %q does not match %s", title, a.Pattern)
		}
		return obs, nil

	case entities.AssertURLContains, entities.AssertURLNotContains:
		url := c.session.URL()
		obs := []entities.Observation{{Label: "url", Value: url}}
		has := strings.Contains(url, a.Value)
		if a.Kind == entities.AssertURLContains && !has {
			return obs, fail(entities.FailureAssertion, nil, "url %s does not contain %q", url, a.Value)
		}
		if a.Kind == entities.AssertURLNotContains && has {
			return obs, fail(entities.FailureAssertion, nil, "url %s still contains %q", url, a.Value)
		}
		return obs, nil

	case entities.AssertVisible:
		return c.visible(ctx, a)

	case entities.AssertCountGreater, entities.AssertCountAtLeast:
		_, res, obs, err := c.resolve(ctx, a)
		if err != nil {
			return obs, err
		}
		ok := res.Count > a.Threshold
		op := ">"
		if a.Kind == entities.AssertCountAtLeast {
			ok = res.Count >= a.Threshold
			op = ">="
		}
		if ok {
			return obs, nil
		}
		kind := entities.FailureAssertion
		if res.Count == 0 {
			kind = entities.FailureLocatorMiss
		}
		return obs, fail(kind, nil, "%s count %d, want %s %d", targetName(a), res.Count, op, a.Threshold)

	case entities.AssertMaxCountAtLeast:
		return c.maxCount(ctx, a)

	case entities.AssertTextLonger, entities.AssertTextNotEmpty:
		loc, res, obs, err := c.resolve(ctx, a)
		if err != nil {
			return obs, err
		}
		if !res.Matched() {
			return obs, fail(entities.FailureLocatorMiss, nil, "%s matched no elements", targetName(a))
		}
		text, err := loc.TextContent(ctx)
		if err != nil {
			return obs, classify(err, targetName(a))
		}
		n := utf8.RuneCountInString(text)
		obs = append(obs, entities.Observation{Label: targetName(a) + " text", Value: preview(text)})
		obs = append(obs, entities.Observation{Label: targetName(a) + " text length", Value: strconv.Itoa(n)})
		if a.Kind == entities.AssertTextNotEmpty && n == 0 {
			return obs, fail(entities.FailureAssertion, nil, "%s has no text", targetName(a))
		}
		if a.Kind == entities.AssertTextLonger && n <= a.Threshold {
			return obs, fail(entities.FailureAssertion, nil, "%s text length %d, want > %d", targetName(a), n, a.Threshold)
		}
		return obs, nil

	default:
		return nil, fail(entities.FailureSetup, nil, "unknown assertion kind %q", a.Kind)
	}
}

func (c *checker) visible(ctx context.Context, a entities.Assertion) ([]entities.Observation, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaultVisibleTimeout
	}
	loc, err := c.locator(a.Target, a.Selector)
	if err != nil {
		return nil, err
	}
	visible, err := loc.IsVisible(ctx, timeout)
	if err != nil {
		return nil, classify(err, targetName(a))
	}

	// resolve after the wait so late rendering is reflected in the diagnostics
	_, res, obs, err := c.resolve(ctx, a)
	if err != nil {
		return obs, err
	}
	obs = append(obs, entities.Observation{Label: targetName(a) + " visible", Value: strconv.FormatBool(visible)})
	if visible {
		if text, err := loc.TextContent(ctx); err == nil && text != "" {
			obs = append(obs, entities.Observation{Label: targetName(a) + " text", Value: preview(text)})
		}
		return obs, nil
	}
	if !res.Matched() {
		return obs, fail(entities.FailureLocatorMiss, nil, "%s matched no elements within %s", targetName(a), timeout)
	}
	return obs, fail(entities.FailureAssertion, nil, "%s is not visible within %s", targetName(a), timeout)
}

func (c *checker) maxCount(ctx context.Context, a entities.Assertion) ([]entities.Observation, error) {
	if len(a.Targets) == 0 {
		return nil, fail(entities.FailureSetup, nil, "max_count_gte needs targets")
	}
	var obs []entities.Observation
	best := 0
	for _, target := range a.Targets {
		_, res, o, err := c.resolve(ctx, entities.Assertion{Target: target})
		obs = append(obs, o...)
		if err != nil {
			return obs, err
		}
		best = max(best, res.Count)
	}
	obs = append(obs, entities.Observation{Label: "max count", Value: strconv.Itoa(best)})
	if best >= a.Threshold {
		return obs, nil
	}
	kind := entities.FailureAssertion
	if best == 0 {
		kind = entities.FailureLocatorMiss
	}
	return obs, fail(kind, nil, "largest of %s is %d, want >= %d", strings.Join(a.Targets, ", "), best, a.Threshold)
}

// preview shortens text for reports
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	const limit = 80
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit]) + "…"
}
