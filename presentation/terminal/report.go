package terminal

import (
	"fmt"
	"io"
	"time"

	"site_e2e/application/scenario"
	"site_e2e/domain/entities"
)

// RenderReport writes a run report grouped by suite, one line per scenario
func RenderReport(w io.Writer, report entities.RunReport) {
	fmt.Fprintf(w, "Run %s against %s (%s)\n", report.ID, report.BaseURL, report.Driver)

	suite := ""
	for _, o := range report.Outcomes {
		if o.Suite != suite {
			suite = o.Suite
			fmt.Fprintf(w, "\n%s\n", suite)
		}
		switch o.Status {
		case entities.StatusPassed:
			fmt.Fprintf(w, "  ✓ %s (%s)\n", o.Name, round(o.Duration))
		case entities.StatusSkipped:
			fmt.Fprintf(w, "  - %s (%s)\n", o.Name, o.Message)
		default:
			fmt.Fprintf(w, "  ✗ %s (%s)\n", o.Name, round(o.Duration))
			fmt.Fprintf(w, "      %s\n", o.Message)
			for _, obs := range o.Observations {
				fmt.Fprintf(w, "      %s: %s\n", obs.Label, obs.Value)
			}
			if o.Page.URL != "" {
				fmt.Fprintf(w, "      at %s\n", o.Page.URL)
			}
			if o.Screenshot != "" {
				fmt.Fprintf(w, "      screenshot: %s\n", o.Screenshot)
			}
		}
	}

	passed, failed, skipped := report.Counts()
	fmt.Fprintf(w, "\n%d scenarios: %d passed, %d failed, %d skipped in %s\n",
		len(report.Outcomes), passed, failed, skipped, round(report.FinishedAt.Sub(report.StartedAt)))
}

// RenderSuites writes the available suites and their scenarios
func RenderSuites(w io.Writer, suites []scenario.Suite) {
	for i, s := range suites {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s - %s (%d)\n", s.Name, s.Title, len(s.Scenarios))
		for _, sc := range s.Scenarios {
			fmt.Fprintf(w, "  %s\n", sc.Name)
		}
	}
}

func round(d time.Duration) time.Duration {
	if d > time.Second {
		return d.Round(10 * time.Millisecond)
	}
	return d.Round(time.Millisecond)
}
