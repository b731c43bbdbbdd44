package entities

import "errors"

var (
	// ErrNoMatch is returned by operations that need an element when a locator resolved to nothing.
	ErrNoMatch = errors.New("locator matched no elements")

	// ErrInvalidSelector is returned when every alternative of a locator was rejected by the driver.
	ErrInvalidSelector = errors.New("no valid selector among alternatives")
)

// LocatorSpec представляет локатор: упорядоченный список альтернативных селекторов
type LocatorSpec struct {
	Role      string   `json:"role" yaml:"-"`
	Selectors []string `json:"selectors" yaml:"selectors"`
	First     bool     `json:"first,omitempty" yaml:"first,omitempty"`
}

// Resolution is the outcome of resolving a locator against the current document
type Resolution struct {
	Selector string   `json:"selector,omitempty"` // winning alternative, empty on miss
	Index    int      `json:"index"`              // -1 on miss
	Count    int      `json:"count"`
	Skipped  []string `json:"skipped,omitempty"` // alternatives the driver rejected
}

// Matched reports whether any alternative matched
func (r Resolution) Matched() bool {
	return r.Count > 0
}
