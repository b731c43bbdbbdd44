package browser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"site_e2e/domain/interfaces"
)

// SnapshotController serves static HTML captures of the site from an fs.FS.
// index.html is the root document; a fragment route "#page-N" renders
// page-N.html when present and index.html otherwise, the way the live site
// swaps sections without a reload. Nothing renders asynchronously, so waits
// are recorded instead of slept.
type SnapshotController struct {
	fsys    fs.FS
	baseURL string
	logger  *logrus.Logger
}

// NewSnapshotController creates a controller over the captures in fsys
func NewSnapshotController(fsys fs.FS, baseURL string, logger *logrus.Logger) *SnapshotController {
	if baseURL == "" {
		baseURL = "http://snapshot.local"
	}
	return &SnapshotController{
		fsys:    fsys,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Name - returns the driver name
func (c *SnapshotController) Name() string { return "snapshot" }

// NewSession - opens a new snapshot page
func (c *SnapshotController) NewSession(ctx context.Context) (interfaces.PageSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &SnapshotSession{
		controller: c,
		docs:       make(map[string]*html.Node),
	}, nil
}

// Close - nothing to release
func (c *SnapshotController) Close() error { return nil }

// SnapshotSession is a page over static documents
type SnapshotSession struct {
	controller *SnapshotController

	mu       sync.Mutex
	docs     map[string]*html.Node
	doc      *html.Node
	path     string
	fragment string
	waited   time.Duration
	closed   bool
}

// Waited returns the total virtual time spent in Wait
func (s *SnapshotSession) Waited() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waited
}

// Navigate - loads the document for a site path
func (s *SnapshotSession) Navigate(ctx context.Context, target string) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, fragment, _ := strings.Cut(target, "#")
	if p == "" {
		p = "/"
	}
	s.path = p
	s.fragment = ""
	if fragment != "" {
		s.fragment = "#" + fragment
	}

	doc, err := s.load(s.documentFor(p, s.fragment))
	if errors.Is(err, fs.ErrNotExist) {
		s.doc = &html.Node{Type: html.DocumentNode}
		return http.StatusNotFound, nil
	}
	if err != nil {
		return 0, err
	}
	s.doc = doc
	return http.StatusOK, nil
}

// Click - follows the first matching element, or its enclosing link
func (s *SnapshotSession) Click(ctx context.Context, selector string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	m, err := compile(selector)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.first(m)
	if node == nil {
		return fmt.Errorf("click %q: no element matches", selector)
	}
	for a := node; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && a.Data == "a" {
			return s.follow(attr(a, "href"))
		}
	}
	return nil
}

// follow applies an href the way a browser would for same-site links
func (s *SnapshotSession) follow(href string) error {
	switch {
	case href == "":
		return nil
	case strings.HasPrefix(href, "#"):
		s.fragment = href
		if href == "#" {
			s.fragment = ""
		}
	case strings.HasPrefix(href, "/"):
		p, fragment, _ := strings.Cut(href, "#")
		s.path = p
		s.fragment = ""
		if fragment != "" {
			s.fragment = "#" + fragment
		}
	default:
		// off-site link; the snapshot has nothing to show for it
		return nil
	}

	doc, err := s.load(s.documentFor(s.path, s.fragment))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.doc = &html.Node{Type: html.DocumentNode}
			return nil
		}
		return err
	}
	s.doc = doc
	return nil
}

// Count - counts matching elements
func (s *SnapshotSession) Count(ctx context.Context, selector string) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	m, err := compile(selector)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0, nil
	}
	return len(cascadia.QueryAll(s.doc, m)), nil
}

// TextContent - returns the text of the first matching element
func (s *SnapshotSession) TextContent(ctx context.Context, selector string) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}
	m, err := compile(selector)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.first(m)
	if node == nil {
		return "", nil
	}
	return textContent(node), nil
}

// IsVisible - reports whether the first matching element is rendered.
// Static documents never change, so the timeout is not waited.
func (s *SnapshotSession) IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	m, err := compile(selector)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.first(m)
	if node == nil {
		return false, nil
	}
	for n := node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hidden(n) {
			return false, nil
		}
	}
	return true, nil
}

// URL - returns the current URL
func (s *SnapshotSession) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return "about:blank"
	}
	return s.controller.baseURL + s.path + s.fragment
}

// Title - returns the document title
func (s *SnapshotSession) Title(ctx context.Context) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.first(cascadia.MustCompile("title"))
	if node == nil {
		return "", nil
	}
	return strings.TrimSpace(textContent(node)), nil
}

// Wait - records d without sleeping
func (s *SnapshotSession) Wait(ctx context.Context, d time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.waited += d
	s.mu.Unlock()
	return nil
}

// Screenshot - writes the current document's HTML, the closest a static capture has to a screenshot
func (s *SnapshotSession) Screenshot(ctx context.Context, path string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return fmt.Errorf("no document loaded")
	}
	var b strings.Builder
	if err := html.Render(&b, s.doc); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// Close - closes the session
func (s *SnapshotSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *SnapshotSession) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("page closed")
	}
	return nil
}

func (s *SnapshotSession) documentFor(p, fragment string) string {
	name := strings.Trim(p, "/")
	if name == "" {
		name = "index"
	}
	if fragment != "" {
		section := strings.TrimPrefix(fragment, "#") + ".html"
		if _, err := fs.Stat(s.controller.fsys, section); err == nil {
			return section
		}
	}
	if path.Ext(name) == "" {
		name += ".html"
	}
	return name
}

func (s *SnapshotSession) load(name string) (*html.Node, error) {
	if doc, ok := s.docs[name]; ok {
		return doc, nil
	}
	f, err := s.controller.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	s.docs[name] = doc
	if s.controller.logger != nil {
		s.controller.logger.WithField("document", name).Debug("snapshot document loaded")
	}
	return doc, nil
}

func (s *SnapshotSession) first(m cascadia.Matcher) *html.Node {
	if s.doc == nil {
		return nil
	}
	return cascadia.Query(s.doc, m)
}

// compile - parses a selector; Playwright engine extensions are rejected like any invalid CSS
func compile(selector string) (cascadia.Matcher, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return group, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hidden(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "hidden" {
			return true
		}
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
