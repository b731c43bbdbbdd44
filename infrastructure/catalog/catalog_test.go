package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site_e2e/domain/entities"
)

func TestDefault_IsValid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 2*time.Second, c.Settle.Load)
	assert.Equal(t, time.Second, c.Settle.BeforeClick)
	assert.Equal(t, 2*time.Second, c.Settle.AfterClick)
	assert.Equal(t, entities.SettleFixed, c.Settle.Mode)

	for _, name := range []string{"common", "home", "navigation", "what_we_do", "projects", "contact"} {
		_, ok := c.Page(name)
		assert.True(t, ok, "page %s missing", name)
	}
}

func TestDefault_RoutesAndEntries(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	wwd, _ := c.Page("what_we_do")
	assert.Equal(t, "#page-3", wwd.Route)
	assert.Equal(t, entities.EntryClick, wwd.Entry.Kind)
	assert.Equal(t, "navigation.what_we_do_link", wwd.Entry.Via)

	projects, _ := c.Page("projects")
	assert.Equal(t, "#page-4", projects.Route)

	home, _ := c.Page("home")
	assert.Equal(t, "home", home.Name)
	assert.Equal(t, entities.EntryLoad, home.Entry.Kind)
}

func TestRef(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	loc, err := c.Ref("home.what_we_do_link")
	require.NoError(t, err)
	assert.Equal(t, "home.what_we_do_link", loc.Role)
	assert.Equal(t, []string{`a[href*="what-we-do"]`, `a[href="#page-3"]`}, loc.Selectors)
	assert.True(t, loc.First)

	projects, err := c.Ref("home.projects_link")
	require.NoError(t, err)
	assert.False(t, projects.First)

	for _, bad := range []string{"home", ".x", "home.", "nope.heading", "home.nope"} {
		_, err := c.Ref(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateSelector(t *testing.T) {
	valid := []string{
		`a[href*="#page"]`,
		`header, [class*="nav"]`,
		`[class*="container"] > div`,
		`a:has-text("Home")`,
		`:text("Contact")`,
		`li:visible`,
	}
	for _, sel := range valid {
		assert.NoError(t, ValidateSelector(sel), sel)
	}

	invalid := []string{"", "   ", `a[href=`, `div >`, `##x`}
	for _, sel := range invalid {
		assert.Error(t, ValidateSelector(sel), sel)
	}
}

func TestLoad_MergesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	override := `
settle:
  after_click: 500ms
  mode: poll
pages:
  projects:
    route: '#page-5'
    locators:
      heading:
        selectors: ['h2.projects-title', 'h2']
        first: true
  careers:
    route: '#page-7'
    entry:
      kind: click
      via: navigation.contact_link
    locators:
      openings:
        selectors: ['[class*="job"]']
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, c.Settle.Load, "unset values keep the default")
	assert.Equal(t, 500*time.Millisecond, c.Settle.AfterClick)
	assert.Equal(t, entities.SettlePoll, c.Settle.Mode)

	projects, _ := c.Page("projects")
	assert.Equal(t, "#page-5", projects.Route)
	assert.Equal(t, entities.EntryClick, projects.Entry.Kind, "entry kept when override omits it")
	assert.Equal(t, []string{"h2.projects-title", "h2"}, projects.Locators["heading"].Selectors)
	assert.Contains(t, projects.Locators, "project_cards", "untouched locators survive")

	careers, ok := c.Page("careers")
	require.True(t, ok)
	assert.Equal(t, "careers", careers.Name)
}

func TestLoad_ExplicitZeroSettleDisablesWait(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settle:\n  load: 0s\n  before_click: 0s\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, c.Settle.Load)
	assert.Zero(t, c.Settle.BeforeClick)
	assert.Equal(t, 2*time.Second, c.Settle.AfterClick, "omitted keys keep the default")
}

func TestLoad_RejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	override := `
settle:
  mode: eventually
pages:
  projects:
    route: 'projects'
    locators:
      heading:
        selectors: ['h2[']
      empty:
        selectors: []
  broken:
    entry:
      kind: click
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 5)
	assert.Contains(t, err.Error(), "settle.mode")
	assert.Contains(t, err.Error(), "pages.projects.route")
	assert.Contains(t, err.Error(), "pages.projects.locators.heading.selectors[0]")
	assert.Contains(t, err.Error(), "pages.projects.locators.empty has no selectors")
	assert.Contains(t, err.Error(), "pages.broken.entry.via is required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshal_RoundTripsThroughParse(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	data, err := c.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	require.NoError(t, again.Validate())
	assert.Equal(t, c.Settle, again.Settle)
	assert.Equal(t, c.Names(), again.Names())
}
