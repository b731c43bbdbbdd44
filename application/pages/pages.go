package pages

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"site_e2e/domain/interfaces"
)

// Typed page objects are the Go API for hand-written browser tests (see e2e/).
// The scenario runner binds pages by name through Bind instead.

// HomePage is the site root
type HomePage struct {
	*Page
	Navigation   *Locator
	HomeLink     *Locator
	AboutLink    *Locator
	WhatWeDoLink *Locator
	ProjectsLink *Locator
	ContactLink  *Locator
	HeroHeading  *Locator
}

// NewHomePage binds the home page object
func NewHomePage(session interfaces.PageSession, catalog interfaces.SelectorCatalog, logger logrus.FieldLogger) (*HomePage, error) {
	page, err := Bind(session, catalog, "home", logger)
	if err != nil {
		return nil, err
	}
	h := &HomePage{Page: page}
	err = bindAll(page, map[string]**Locator{
		"navigation":      &h.Navigation,
		"home_link":       &h.HomeLink,
		"about_link":      &h.AboutLink,
		"what_we_do_link": &h.WhatWeDoLink,
		"projects_link":   &h.ProjectsLink,
		"contact_link":    &h.ContactLink,
		"hero_heading":    &h.HeroHeading,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Navigation is the site's header navigation, reachable from every section
type Navigation struct {
	*Page
	NavBar       *Locator
	HomeLink     *Locator
	WhatWeDoLink *Locator
	ProjectsLink *Locator
	ContactLink  *Locator
}

// NewNavigation binds the navigation page object
func NewNavigation(session interfaces.PageSession, catalog interfaces.SelectorCatalog, logger logrus.FieldLogger) (*Navigation, error) {
	page, err := Bind(session, catalog, "navigation", logger)
	if err != nil {
		return nil, err
	}
	n := &Navigation{Page: page}
	err = bindAll(page, map[string]**Locator{
		"nav_bar":         &n.NavBar,
		"home_link":       &n.HomeLink,
		"what_we_do_link": &n.WhatWeDoLink,
		"projects_link":   &n.ProjectsLink,
		"contact_link":    &n.ContactLink,
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// WhatWeDoPage is the services section (#page-3)
type WhatWeDoPage struct {
	*Page
	Heading  *Locator
	Sections *Locator
	Content  *Locator
}

// NewWhatWeDoPage binds the what-we-do page object
func NewWhatWeDoPage(session interfaces.PageSession, catalog interfaces.SelectorCatalog, logger logrus.FieldLogger) (*WhatWeDoPage, error) {
	page, err := Bind(session, catalog, "what_we_do", logger)
	if err != nil {
		return nil, err
	}
	w := &WhatWeDoPage{Page: page}
	err = bindAll(page, map[string]**Locator{
		"heading":  &w.Heading,
		"sections": &w.Sections,
		"content":  &w.Content,
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ProjectsPage is the portfolio section (#page-4)
type ProjectsPage struct {
	*Page
	Heading       *Locator
	ProjectCards  *Locator
	ProjectImages *Locator
}

// NewProjectsPage binds the projects page object
func NewProjectsPage(session interfaces.PageSession, catalog interfaces.SelectorCatalog, logger logrus.FieldLogger) (*ProjectsPage, error) {
	page, err := Bind(session, catalog, "projects", logger)
	if err != nil {
		return nil, err
	}
	p := &ProjectsPage{Page: page}
	err = bindAll(page, map[string]**Locator{
		"heading":        &p.Heading,
		"project_cards":  &p.ProjectCards,
		"project_images": &p.ProjectImages,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func bindAll(page *Page, fields map[string]**Locator) error {
	for role, field := range fields {
		loc, err := page.Locator(role)
		if err != nil {
			return fmt.Errorf("bind %s: %w", page.Name(), err)
		}
		*field = loc
	}
	return nil
}
