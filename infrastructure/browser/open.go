package browser

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"site_e2e/domain/interfaces"
)

// Driver names accepted by Open
const (
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
	DriverSnapshot   = "snapshot"
)

// Open - creates the controller for the named driver.
// snapshotDir is only read by the snapshot driver.
func Open(driver string, opts Options, snapshotDir string, logger *logrus.Logger) (interfaces.BrowserController, error) {
	switch driver {
	case DriverPlaywright, "":
		return NewBrowserController(opts, logger)
	case DriverRod:
		return NewRodController(opts, logger)
	case DriverSnapshot:
		if snapshotDir == "" {
			return nil, fmt.Errorf("snapshot driver needs a snapshot directory")
		}
		if _, err := os.Stat(snapshotDir); err != nil {
			return nil, fmt.Errorf("snapshot directory: %w", err)
		}
		return NewSnapshotController(os.DirFS(snapshotDir), opts.BaseURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", driver)
	}
}
