//go:build e2e

// Package e2e runs the built-in scenarios against the live site as Go
// subtests. Run with:
//
//	SITE_BASE_URL=https://example.com go test -tags e2e ./e2e/...
package e2e

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site_e2e/application/pages"
	"site_e2e/application/scenario"
	"site_e2e/domain/entities"
	"site_e2e/domain/interfaces"
	"site_e2e/infrastructure/browser"
	"site_e2e/infrastructure/catalog"
	"site_e2e/infrastructure/config"
)

var (
	envOnce    sync.Once
	controller interfaces.BrowserController
	cfg        *config.Config
	envErr     error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if controller != nil {
		_ = controller.Close()
	}
	os.Exit(code)
}

// setup launches one browser for the whole package; scenarios still get a
// fresh context each
func setup(t *testing.T) (interfaces.BrowserController, *catalog.Catalog) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	envOnce.Do(func() {
		cfg, envErr = config.Load("")
		if envErr != nil || cfg.BaseURL == "" {
			return
		}
		controller, envErr = browser.Open(cfg.Driver, browser.Options{
			BaseURL:    cfg.BaseURL,
			Engine:     cfg.Engine,
			Headless:   cfg.Headless,
			NavTimeout: cfg.NavTimeout,
		}, cfg.SnapshotDir, logger())
	})
	if envErr != nil {
		t.Skip("browser not available:", envErr)
	}
	if cfg.BaseURL == "" {
		t.Skip("SITE_BASE_URL not set")
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	require.NoError(t, err)
	return controller, cat
}

func logger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

func TestScenarios(t *testing.T) {
	ctrl, cat := setup(t)
	runner := scenario.NewRunner(ctrl, cat, scenario.Options{
		Timeout:       cfg.ScenarioTimeout,
		ScreenshotDir: cfg.ScreenshotDir,
		BaseURL:       cfg.BaseURL,
	}, logger())

	for _, suite := range scenario.BuiltIn() {
		t.Run(suite.Name, func(t *testing.T) {
			for _, sc := range suite.Scenarios {
				t.Run(sc.Name, func(t *testing.T) {
					t.Parallel()
					out := runner.RunScenario(context.Background(), sc)
					for _, obs := range out.Observations {
						t.Logf("%s: %s", obs.Label, obs.Value)
					}
					if out.Status != entities.StatusPassed {
						t.Errorf("%s at %s", out.Message, out.Page.URL)
					}
				})
			}
		})
	}
}

func TestHomePage_Locators(t *testing.T) {
	ctrl, cat := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	session, err := ctrl.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	home, err := pages.NewHomePage(session, cat, logger())
	require.NoError(t, err)
	res, err := home.Goto(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)

	for _, loc := range []*pages.Locator{home.Navigation, home.WhatWeDoLink, home.ProjectsLink, home.ContactLink, home.HeroHeading} {
		r, err := loc.Resolve(ctx)
		require.NoError(t, err, loc.Spec().Role)
		assert.True(t, r.Matched(), "%s resolved to nothing", loc.Spec().Role)
		if r.Index > 0 {
			t.Logf("%s resolved by fallback %s", loc.Spec().Role, r.Selector)
		}
	}
}

func TestSections_RouteOnClick(t *testing.T) {
	ctrl, cat := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, name := range []string{"what_we_do", "projects", "contact"} {
		t.Run(name, func(t *testing.T) {
			session, err := ctrl.NewSession(ctx)
			require.NoError(t, err)
			defer session.Close()

			page, err := pages.Bind(session, cat, name, logger())
			require.NoError(t, err)
			res, err := page.Goto(ctx)
			require.NoError(t, err)
			require.NoError(t, res.ClickErr)
			assert.True(t, strings.Contains(res.URL, page.Route()), "url %s, want route %s", res.URL, page.Route())
		})
	}
}
