// Package catalog holds the selector catalog: for every logical page of the
// site, its hash route, how goto reaches it, and its named locators as
// ordered selector alternatives. The default catalog is embedded; a YAML file
// can override any page or locator without rebuilding.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"

	"site_e2e/domain/entities"
)

//go:embed default.yaml
var defaultCatalog []byte

var (
	routePattern = regexp.MustCompile(`^#page-[0-9]+$`)

	// Playwright extends CSS with text pseudo-classes that no CSS parser accepts.
	engineExtensions = regexp.MustCompile(`:(?:has-text|text-is|text-matches|text)\((?:"[^"]*"|'[^']*'|[^)]*)\)|:visible`)
)

// Catalog maps page names to page definitions
type Catalog struct {
	Settle entities.SettleSpec          `yaml:"settle"`
	Pages  map[string]entities.PageSpec `yaml:"pages"`

	// settle keys present in the parsed document, so an explicit 0s is kept
	settleSet settleKeys
}

type settleKeys struct {
	load, beforeClick, afterClick bool
}

// ValidationError represents a catalog validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return c, nil
}

// Load returns the embedded catalog with the file at path merged over it.
// An empty path returns the embedded catalog. The result is validated.
func Load(path string) (*Catalog, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog override: %w", err)
		}
		override, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog override %s: %w", path, err)
		}
		base.Merge(override)
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

// Parse decodes a catalog document. It does not validate.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	var present struct {
		Settle struct {
			Load        *time.Duration `yaml:"load"`
			BeforeClick *time.Duration `yaml:"before_click"`
			AfterClick  *time.Duration `yaml:"after_click"`
		} `yaml:"settle"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, err
	}
	c.settleSet = settleKeys{
		load:        present.Settle.Load != nil,
		beforeClick: present.Settle.BeforeClick != nil,
		afterClick:  present.Settle.AfterClick != nil,
	}
	if c.Pages == nil {
		c.Pages = make(map[string]entities.PageSpec)
	}
	for name, page := range c.Pages {
		page.Name = name
		if page.Locators == nil {
			page.Locators = make(map[string]entities.LocatorSpec)
		}
		c.Pages[name] = page
	}
	return &c, nil
}

// Merge overlays other onto c. Settle values replace ours when non-zero or
// written out in the override document (so "load: 0s" disables that wait);
// pages merge locator by locator, and a non-empty route or entry replaces ours.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	if other.Settle.Load != 0 || other.settleSet.load {
		c.Settle.Load = other.Settle.Load
	}
	if other.Settle.BeforeClick != 0 || other.settleSet.beforeClick {
		c.Settle.BeforeClick = other.Settle.BeforeClick
	}
	if other.Settle.AfterClick != 0 || other.settleSet.afterClick {
		c.Settle.AfterClick = other.Settle.AfterClick
	}
	if other.Settle.Mode != "" {
		c.Settle.Mode = other.Settle.Mode
	}

	for name, page := range other.Pages {
		existing, ok := c.Pages[name]
		if !ok {
			c.Pages[name] = page
			continue
		}
		if page.Route != "" {
			existing.Route = page.Route
		}
		if page.Entry.Kind != "" {
			existing.Entry = page.Entry
		}
		for role, loc := range page.Locators {
			existing.Locators[role] = loc
		}
		c.Pages[name] = existing
	}
}

// WithSettle returns a copy of c that uses settle for every wait.
func (c *Catalog) WithSettle(settle entities.SettleSpec) *Catalog {
	cp := *c
	cp.Settle = settle
	return &cp
}

// Validate checks every page, entry and selector and reports all problems at once.
func (c *Catalog) Validate() error {
	var errs []string

	switch c.Settle.Mode {
	case "", entities.SettleFixed, entities.SettlePoll:
	default:
		errs = append(errs, fmt.Sprintf("settle.mode %q must be %q or %q", c.Settle.Mode, entities.SettleFixed, entities.SettlePoll))
	}
	waits := []struct {
		label string
		d     time.Duration
	}{
		{"settle.load", c.Settle.Load},
		{"settle.before_click", c.Settle.BeforeClick},
		{"settle.after_click", c.Settle.AfterClick},
	}
	for _, w := range waits {
		if w.d < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative", w.label))
		}
	}

	if len(c.Pages) == 0 {
		errs = append(errs, "catalog defines no pages")
	}

	for _, name := range c.Names() {
		page := c.Pages[name]
		if page.Route != "" && !routePattern.MatchString(page.Route) {
			errs = append(errs, fmt.Sprintf("pages.%s.route %q is not a #page-N fragment", name, page.Route))
		}

		switch page.Entry.Kind {
		case entities.EntryLoad, "":
		case entities.EntryClick:
			if page.Entry.Via == "" {
				errs = append(errs, fmt.Sprintf("pages.%s.entry.via is required for click entries", name))
			} else if _, err := c.Ref(page.Entry.Via); err != nil {
				errs = append(errs, fmt.Sprintf("pages.%s.entry.via: %v", name, err))
			}
		default:
			errs = append(errs, fmt.Sprintf("pages.%s.entry.kind %q is unknown", name, page.Entry.Kind))
		}

		roles := make([]string, 0, len(page.Locators))
		for role := range page.Locators {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			loc := page.Locators[role]
			if len(loc.Selectors) == 0 {
				errs = append(errs, fmt.Sprintf("pages.%s.locators.%s has no selectors", name, role))
			}
			for i, sel := range loc.Selectors {
				if err := ValidateSelector(sel); err != nil {
					errs = append(errs, fmt.Sprintf("pages.%s.locators.%s.selectors[%d]: %v", name, role, i, err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ValidateSelector reports whether sel is syntactically valid CSS, allowing
// the Playwright text pseudo-classes.
func ValidateSelector(sel string) error {
	if strings.TrimSpace(sel) == "" {
		return fmt.Errorf("empty selector")
	}
	stripped := engineExtensions.ReplaceAllString(sel, "")
	if strings.TrimSpace(stripped) == "" {
		stripped = "*"
	}
	if _, err := cascadia.ParseGroup(stripped); err != nil {
		return fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	return nil
}

// Names returns the page names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Pages))
	for name := range c.Pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Page returns the named page definition.
func (c *Catalog) Page(name string) (entities.PageSpec, bool) {
	page, ok := c.Pages[name]
	return page, ok
}

// Ref resolves a dotted "page.role" locator reference.
func (c *Catalog) Ref(ref string) (entities.LocatorSpec, error) {
	pageName, role, ok := strings.Cut(ref, ".")
	if !ok || pageName == "" || role == "" {
		return entities.LocatorSpec{}, fmt.Errorf("locator reference %q is not of the form page.role", ref)
	}
	page, ok := c.Pages[pageName]
	if !ok {
		return entities.LocatorSpec{}, fmt.Errorf("unknown page %q in %q", pageName, ref)
	}
	loc, ok := page.Locator(role)
	if !ok {
		return entities.LocatorSpec{}, fmt.Errorf("unknown locator %q on page %q", role, pageName)
	}
	return loc, nil
}

// SettleSpec returns the waits applied around navigation.
func (c *Catalog) SettleSpec() entities.SettleSpec {
	return c.Settle
}

// Marshal renders the catalog as YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
