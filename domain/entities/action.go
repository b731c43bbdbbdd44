package entities

import "time"

// ActionType represents the type of browser action a scenario step performs
type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionClick    ActionType = "click"
	ActionWait     ActionType = "wait"
)

// Action represents a single step a scenario performs between its goto and its assertions
type Action struct {
	Type ActionType `json:"type" yaml:"type"`
	// Locator is a dotted catalog reference such as "navigation.projects".
	Locator string `json:"locator,omitempty" yaml:"locator,omitempty"`
	// Selector is a raw selector, used when Locator is empty.
	Selector    string        `json:"selector,omitempty" yaml:"selector,omitempty"`
	Path        string        `json:"path,omitempty" yaml:"path,omitempty"`
	Duration    time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	Description string        `json:"description" yaml:"description"`
}
