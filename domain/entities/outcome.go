package entities

import "time"

// ScenarioStatus represents the terminal state of a scenario
type ScenarioStatus string

const (
	StatusPassed  ScenarioStatus = "passed"
	StatusFailed  ScenarioStatus = "failed"
	StatusSkipped ScenarioStatus = "skipped"
)

// FailureKind classifies why a scenario failed
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureSetup       FailureKind = "setup"
	FailureNavigation  FailureKind = "navigation"
	FailureLocatorMiss FailureKind = "locator_miss"
	FailureAssertion   FailureKind = "assertion"
)

// Observation is a diagnostic value recorded while a scenario ran
type Observation struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ScenarioOutcome is the pass/fail result of one scenario with its diagnostics
type ScenarioOutcome struct {
	Suite        string         `json:"suite"`
	Name         string         `json:"name"`
	Status       ScenarioStatus `json:"status"`
	Failure      FailureKind    `json:"failure,omitempty"`
	Message      string         `json:"message,omitempty"`
	Observations []Observation  `json:"observations,omitempty"`
	Page         PageInfo       `json:"page"`
	Screenshot   string         `json:"screenshot,omitempty"`
	Duration     time.Duration  `json:"duration"`
}

// ID returns the "suite/name" identifier of the outcome
func (o ScenarioOutcome) ID() string {
	return o.Suite + "/" + o.Name
}

// RunReport aggregates the outcomes of one run
type RunReport struct {
	ID         string            `json:"id"`
	BaseURL    string            `json:"base_url"`
	Driver     string            `json:"driver"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Outcomes   []ScenarioOutcome `json:"outcomes"`
}

// Counts returns the number of passed, failed and skipped outcomes
func (r RunReport) Counts() (passed, failed, skipped int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Failed reports whether any scenario failed
func (r RunReport) Failed() bool {
	_, failed, _ := r.Counts()
	return failed > 0
}
