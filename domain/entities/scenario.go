package entities

import "time"

// AssertionKind names an observable outcome a scenario checks
type AssertionKind string

const (
	AssertStatus          AssertionKind = "status"
	AssertTitleMatches    AssertionKind = "title_matches"
	AssertTitleNotEmpty   AssertionKind = "title_not_empty"
	AssertVisible         AssertionKind = "visible"
	AssertCountGreater    AssertionKind = "count_gt"
	AssertCountAtLeast    AssertionKind = "count_gte"
	AssertMaxCountAtLeast AssertionKind = "max_count_gte"
	AssertURLContains     AssertionKind = "url_contains"
	AssertURLNotContains  AssertionKind = "url_not_contains"
	AssertTextLonger      AssertionKind = "text_len_gt"
	AssertTextNotEmpty    AssertionKind = "text_not_empty"
)

// Assertion is one check performed after navigation.
// Target is a dotted locator reference ("home.hero_heading") or, when Selector
// is set, ignored in favour of the raw selector.
type Assertion struct {
	Kind      AssertionKind `json:"kind" yaml:"kind"`
	Target    string        `json:"target,omitempty" yaml:"target,omitempty"`
	Selector  string        `json:"selector,omitempty" yaml:"selector,omitempty"`
	Targets   []string      `json:"targets,omitempty" yaml:"targets,omitempty"`
	Pattern   string        `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Value     string        `json:"value,omitempty" yaml:"value,omitempty"`
	Threshold int           `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Scenario is one independent, assertion-terminated test case
type Scenario struct {
	Suite string `json:"suite"`
	Name  string `json:"name"`
	// Page is the page object whose goto runs first. Empty means a bare load
	// of the site root without a settle wait.
	Page       string      `json:"page,omitempty"`
	Steps      []Action    `json:"steps,omitempty"`
	Assertions []Assertion `json:"assertions"`
	// Extra is waited after goto and steps, before assertions.
	Extra time.Duration `json:"extra,omitempty"`
}

// ID returns the "suite/name" identifier of the scenario
func (s Scenario) ID() string {
	return s.Suite + "/" + s.Name
}
