package browser

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteSession(t *testing.T) *SnapshotSession {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	controller := NewSnapshotController(os.DirFS(filepath.Join("..", "..", "testdata", "site")), "http://site.test/", logger)
	session, err := controller.NewSession(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session.(*SnapshotSession)
}

func TestSnapshot_NavigateRoot(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)

	assert.Equal(t, "about:blank", s.URL())

	status, err := s.Navigate(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "http://site.test/", s.URL())

	title, err := s.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Home", title)

	count, err := s.Count(ctx, `a[href*="#page"]`)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}

func TestSnapshot_NavigateMissingPage(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)

	status, err := s.Navigate(ctx, "/careers")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	count, err := s.Count(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSnapshot_ClickHashLinkSwapsSection(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)

	_, err := s.Navigate(ctx, "/")
	require.NoError(t, err)

	require.NoError(t, s.Click(ctx, `a[href="#page-4"]`))
	assert.Equal(t, "http://site.test/#page-4", s.URL())

	heading, err := s.TextContent(ctx, "h2")
	require.NoError(t, err)
	assert.Equal(t, "Projects", heading)

	// a section without its own capture keeps the root document
	require.NoError(t, s.Click(ctx, `a[href="#page-2"]`))
	assert.True(t, strings.HasSuffix(s.URL(), "#page-2"))
	heading, err = s.TextContent(ctx, "h1")
	require.NoError(t, err)
	assert.Contains(t, heading, "Infrastructure")

	require.NoError(t, s.Click(ctx, `a.logo img`), "clicks bubble to the enclosing link")
	assert.Equal(t, "http://site.test/", s.URL())
}

func TestSnapshot_ClickWithoutMatchFails(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)
	_, err := s.Navigate(ctx, "/")
	require.NoError(t, err)

	assert.Error(t, s.Click(ctx, `a[href="#page-9"]`))
}

func TestSnapshot_InvalidSelectorsAreRejected(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)
	_, err := s.Navigate(ctx, "/")
	require.NoError(t, err)

	_, err = s.Count(ctx, `a:has-text("Home")`)
	assert.Error(t, err)
	_, err = s.TextContent(ctx, `a[href=`)
	assert.Error(t, err)
	_, err = s.IsVisible(ctx, `div >`, time.Second)
	assert.Error(t, err)
}

func TestSnapshot_Visibility(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)
	_, err := s.Navigate(ctx, "/")
	require.NoError(t, err)

	visible, err := s.IsVisible(ctx, "h1", time.Second)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = s.IsVisible(ctx, ".cookie-banner", time.Second)
	require.NoError(t, err)
	assert.False(t, visible, "display:none hides the element")

	visible, err = s.IsVisible(ctx, ".does-not-exist", time.Second)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestSnapshot_WaitIsVirtual(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)

	start := time.Now()
	require.NoError(t, s.Wait(ctx, 2*time.Second))
	require.NoError(t, s.Wait(ctx, time.Second))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 3*time.Second, s.Waited())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Wait(cancelled, time.Second), context.Canceled)
}

func TestSnapshot_ClosedSessionFails(t *testing.T) {
	ctx := context.Background()
	s := newSiteSession(t)
	require.NoError(t, s.Close())

	_, err := s.Navigate(ctx, "/")
	assert.Error(t, err)
}

func TestSnapshot_HiddenAttributeAndScreenshot(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"index.html": {Data: []byte(`<html><head><title> Probe </title></head><body><main><p hidden>secret</p><p>shown</p></main></body></html>`)},
	}
	controller := NewSnapshotController(fsys, "", logrus.New())
	session, err := controller.NewSession(ctx)
	require.NoError(t, err)

	_, err = session.Navigate(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "http://snapshot.local/", session.URL())

	title, err := session.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Probe", title)

	visible, err := session.IsVisible(ctx, "p", time.Second)
	require.NoError(t, err)
	assert.False(t, visible, "first match carries the hidden attribute")

	text, err := session.TextContent(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "secretshown", text)

	out := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, session.Screenshot(ctx, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<p>shown</p>")
}
