package entities

import "time"

// EntryKind describes how a page object is reached
type EntryKind string

const (
	// EntryLoad loads the site root.
	EntryLoad EntryKind = "load"
	// EntryClick loads the site root, then clicks a navigation locator.
	EntryClick EntryKind = "click"
)

// SettleMode selects how goto waits for client-side rendering
type SettleMode string

const (
	// SettleFixed sleeps for the whole duration.
	SettleFixed SettleMode = "fixed"
	// SettlePoll returns once the URL carries the page route, bounded by the duration.
	SettlePoll SettleMode = "poll"
)

// EntrySpec describes the navigation action of a page object's goto
type EntrySpec struct {
	Kind EntryKind `json:"kind" yaml:"kind"`
	// Via is a dotted locator reference, required for EntryClick.
	Via string `json:"via,omitempty" yaml:"via,omitempty"`
}

// SettleSpec holds the waits applied around navigation actions
type SettleSpec struct {
	Load        time.Duration `json:"load" yaml:"load"`
	BeforeClick time.Duration `json:"before_click" yaml:"before_click"`
	AfterClick  time.Duration `json:"after_click" yaml:"after_click"`
	Mode        SettleMode    `json:"mode" yaml:"mode"`
}

// PageSpec is the immutable definition of one logical page of the site
type PageSpec struct {
	Name     string                 `json:"name" yaml:"-"`
	Route    string                 `json:"route,omitempty" yaml:"route,omitempty"`
	Entry    EntrySpec              `json:"entry" yaml:"entry"`
	Locators map[string]LocatorSpec `json:"locators" yaml:"locators"`
}

// Locator returns the named locator and whether it exists
func (p PageSpec) Locator(role string) (LocatorSpec, bool) {
	spec, ok := p.Locators[role]
	if ok {
		spec.Role = p.Name + "." + role
	}
	return spec, ok
}
