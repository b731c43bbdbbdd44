package interfaces

import (
	"context"
	"time"
)

// BrowserController launches a browser and hands out isolated page sessions
type BrowserController interface {
	// Name returns the driver name ("playwright", "rod", "snapshot")
	Name() string

	// NewSession opens a fresh page in its own browser context
	NewSession(ctx context.Context) (PageSession, error)

	// Close shuts the browser down
	Close() error
}

// PageSession drives one browser page for the lifetime of a scenario.
// Selector-based queries never fail because nothing matched: Count returns 0,
// TextContent returns "", IsVisible returns false. They fail only when the
// driver rejects the selector or the page is gone.
type PageSession interface {
	// Navigate loads a path relative to the base URL and waits for DOMContentLoaded.
	// It returns the HTTP status of the main document.
	Navigate(ctx context.Context, path string) (int, error)

	// Click clicks the first element matching selector
	Click(ctx context.Context, selector string) error

	// Count returns how many elements currently match selector
	Count(ctx context.Context, selector string) (int, error)

	// TextContent returns the text content of the first element matching selector
	TextContent(ctx context.Context, selector string) (string, error)

	// IsVisible waits up to timeout for the first element matching selector to become visible
	IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// URL returns the current document URL
	URL() string

	// Title returns the current document title
	Title(ctx context.Context) (string, error)

	// Wait suspends for d, or until ctx is done
	Wait(ctx context.Context, d time.Duration) error

	// Screenshot writes a PNG of the page to path
	Screenshot(ctx context.Context, path string) error

	// Close releases the page and its context
	Close() error
}
