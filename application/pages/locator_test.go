package pages

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"site_e2e/domain/entities"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestResolve_FirstMatchingAlternativeWins(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession()
	s.counts[`a[href*="what-we-do"]`] = 0
	s.counts[`a[href="#page-3"]`] = 2
	s.counts[`a`] = 9

	loc := NewLocator(s, entities.LocatorSpec{
		Role:      "home.what_we_do_link",
		Selectors: []string{`a[href*="what-we-do"]`, `a[href="#page-3"]`, `a`},
	}, quietLogger())

	res, err := loc.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, `a[href="#page-3"]`, res.Selector)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, 2, res.Count)
	assert.NotContains(t, s.queries, "a", "later alternatives are not evaluated once one matches")
}

func TestResolve_FirstCapsCount(t *testing.T) {
	s := newFakeSession()
	s.counts["h1"] = 3

	loc := NewLocator(s, entities.LocatorSpec{Role: "x", Selectors: []string{"h1"}, First: true}, quietLogger())
	count, err := loc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolve_MissIsNotAnError(t *testing.T) {
	s := newFakeSession()
	loc := NewLocator(s, entities.LocatorSpec{Role: "x", Selectors: []string{"main", "[class*=content]"}}, quietLogger())

	res, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Matched())
	assert.Equal(t, -1, res.Index)
	assert.Empty(t, res.Selector)

	text, err := loc.TextContent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestResolve_SkipsInvalidAlternatives(t *testing.T) {
	s := newFakeSession()
	s.invalid[`a:has-text("Home")`] = true
	s.counts[`a[href="/"]`] = 1

	loc := NewLocator(s, entities.LocatorSpec{Role: "x", Selectors: []string{`a:has-text("Home")`, `a[href="/"]`}}, quietLogger())
	res, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `a[href="/"]`, res.Selector)
	assert.Equal(t, []string{`a:has-text("Home")`}, res.Skipped)
}

func TestResolve_AllInvalidIsAnError(t *testing.T) {
	s := newFakeSession()
	s.invalid["a["] = true
	s.invalid["div >"] = true

	loc := NewLocator(s, entities.LocatorSpec{Role: "x", Selectors: []string{"a[", "div >"}}, quietLogger())
	_, err := loc.Resolve(context.Background())
	assert.ErrorIs(t, err, entities.ErrInvalidSelector)

	empty := NewLocator(s, entities.LocatorSpec{Role: "none"}, quietLogger())
	_, err = empty.Resolve(context.Background())
	assert.ErrorIs(t, err, entities.ErrInvalidSelector)
}

func TestResolve_CancelledContext(t *testing.T) {
	s := newFakeSession()
	s.counts["h1"] = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loc := NewLocator(s, entities.LocatorSpec{Role: "x", Selectors: []string{"h1"}}, quietLogger())
	_, err := loc.Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocator_IsReEvaluatedOnEveryQuery(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession()
	loc := NewLocator(s, entities.LocatorSpec{Role: "x", Selectors: []string{".card", ".item"}}, quietLogger())

	count, err := loc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	s.counts[".item"] = 4
	count, err = loc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	s.counts[".card"] = 1
	res, err := loc.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, ".card", res.Selector)
}

func TestLocator_Click(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession()
	loc := NewLocator(s, entities.LocatorSpec{Role: "nav.contact", Selectors: []string{`a[href*="contact"]`, `a[href="#page-6"]`}}, quietLogger())

	err := loc.Click(ctx)
	assert.ErrorIs(t, err, entities.ErrNoMatch)
	assert.Empty(t, s.clicked)

	s.counts[`a[href="#page-6"]`] = 1
	require.NoError(t, loc.Click(ctx))
	assert.Equal(t, []string{`a[href="#page-6"]`}, s.clicked)
}

func TestLocator_IsVisible(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession()
	s.invalid["h1:broken("] = true
	loc := NewLocator(s, entities.LocatorSpec{Role: "x", Selectors: []string{"h1:broken(", "h1", "h2"}}, quietLogger())

	visible, err := loc.IsVisible(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, visible)

	s.counts["h2"] = 1
	visible, err = loc.IsVisible(ctx, time.Second)
	require.NoError(t, err)
	assert.True(t, visible)

	s.counts["h1"] = 1
	s.hidden["h1"] = true
	visible, err = loc.IsVisible(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, visible, "the winning alternative decides, even when a later one is visible")
}

func TestRaw(t *testing.T) {
	s := newFakeSession()
	s.counts["main"] = 2
	count, err := Raw(s, "main", nil).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// alternative describes one generated selector alternative
type alternative struct {
	valid bool
	count int
}

func drawAlternatives(t *rapid.T) []alternative {
	n := rapid.IntRange(1, 6).Draw(t, "n")
	alts := make([]alternative, n)
	anyValid := false
	for i := range alts {
		alts[i].valid = rapid.Bool().Draw(t, fmt.Sprintf("valid%d", i))
		alts[i].count = rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("count%d", i))
		anyValid = anyValid || alts[i].valid
	}
	if !anyValid {
		alts[rapid.IntRange(0, n-1).Draw(t, "forceValid")].valid = true
	}
	return alts
}

func sessionFor(alts []alternative) (*fakeSession, []string) {
	s := newFakeSession()
	selectors := make([]string, len(alts))
	for i, alt := range alts {
		sel := fmt.Sprintf(".alt-%d", i)
		selectors[i] = sel
		if !alt.valid {
			s.invalid[sel] = true
			continue
		}
		s.counts[sel] = alt.count
	}
	return s, selectors
}

func TestResolve_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		alts := drawAlternatives(t)
		first := rapid.Bool().Draw(t, "first")
		s, selectors := sessionFor(alts)

		loc := NewLocator(s, entities.LocatorSpec{Role: "gen", Selectors: selectors, First: first}, quietLogger())
		res, err := loc.Resolve(context.Background())
		if err != nil {
			t.Fatalf("resolution failed with a valid alternative present: %v", err)
		}

		want := -1
		for i, alt := range alts {
			if alt.valid && alt.count > 0 {
				want = i
				break
			}
		}
		if res.Index != want {
			t.Fatalf("resolved index %d, want first matching alternative %d", res.Index, want)
		}
		if want == -1 {
			if res.Count != 0 || res.Selector != "" {
				t.Fatalf("miss produced a non-empty resolution: %+v", res)
			}
			return
		}
		wantCount := alts[want].count
		if first {
			wantCount = 1
		}
		if res.Count != wantCount || res.Selector != selectors[want] {
			t.Fatalf("resolution %+v, want selector %s count %d", res, selectors[want], wantCount)
		}
	})
}
