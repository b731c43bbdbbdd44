package interfaces

import "site_e2e/domain/entities"

// SelectorCatalog resolves page and locator definitions by name
type SelectorCatalog interface {
	// Page returns the named page definition
	Page(name string) (entities.PageSpec, bool)

	// Ref resolves a dotted "page.role" locator reference
	Ref(ref string) (entities.LocatorSpec, error)

	// SettleSpec returns the waits applied around navigation
	SettleSpec() entities.SettleSpec
}
