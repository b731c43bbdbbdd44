package pages

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"site_e2e/domain/entities"
)

// fakeSession answers selector queries from tables
type fakeSession struct {
	mu      sync.Mutex
	counts  map[string]int
	invalid map[string]bool
	hidden  map[string]bool
	texts   map[string]string
	url     string
	// routes maps a clicked selector to the URL it leads to
	routes  map[string]string
	clicked []string
	queries []string
	waited  time.Duration
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		counts:  map[string]int{},
		invalid: map[string]bool{},
		hidden:  map[string]bool{},
		texts:   map[string]string{},
		routes:  map[string]string{},
	}
}

func (f *fakeSession) Navigate(ctx context.Context, path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = "http://fake.test" + path
	return 200, ctx.Err()
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[selector] == 0 {
		return fmt.Errorf("no element for %s", selector)
	}
	f.clicked = append(f.clicked, selector)
	if to, ok := f.routes[selector]; ok {
		f.url = to
	}
	return nil
}

func (f *fakeSession) Count(ctx context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, selector)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.invalid[selector] {
		return 0, fmt.Errorf("invalid selector %q", selector)
	}
	return f.counts[selector], nil
}

func (f *fakeSession) TextContent(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invalid[selector] {
		return "", fmt.Errorf("invalid selector %q", selector)
	}
	return f.texts[selector], nil
}

func (f *fakeSession) IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range strings.Split(selector, ", ") {
		if f.invalid[part] {
			return false, fmt.Errorf("invalid selector %q", part)
		}
		if f.counts[part] > 0 && !f.hidden[part] {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSession) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

func (f *fakeSession) Title(ctx context.Context) (string, error) { return "Fake", nil }

func (f *fakeSession) Wait(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited += d
	return ctx.Err()
}

func (f *fakeSession) Screenshot(ctx context.Context, path string) error { return nil }

func (f *fakeSession) Close() error { return nil }

// fakeCatalog serves a fixed set of pages
type fakeCatalog struct {
	pages  map[string]entities.PageSpec
	settle entities.SettleSpec
}

func (c *fakeCatalog) Page(name string) (entities.PageSpec, bool) {
	p, ok := c.pages[name]
	return p, ok
}

func (c *fakeCatalog) Ref(ref string) (entities.LocatorSpec, error) {
	pageName, role, _ := strings.Cut(ref, ".")
	p, ok := c.pages[pageName]
	if !ok {
		return entities.LocatorSpec{}, fmt.Errorf("unknown page %q", pageName)
	}
	loc, ok := p.Locator(role)
	if !ok {
		return entities.LocatorSpec{}, fmt.Errorf("unknown locator %q", role)
	}
	return loc, nil
}

func (c *fakeCatalog) SettleSpec() entities.SettleSpec { return c.settle }
