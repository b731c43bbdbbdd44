// Package scenario is the scenario layer: the built-in suites, the
// evaluation of their assertions, and the runner that executes them in
// isolated browser sessions.
package scenario

import (
	"fmt"
	"strings"
	"time"

	"site_e2e/domain/entities"
)

const (
	// visibleTimeout bounds visibility checks that wait for late rendering
	visibleTimeout = 10 * time.Second
	// navSettle is the pause after a click on a navigation link
	navSettle = 2 * time.Second
)

// Suite is a named group of scenarios
type Suite struct {
	Name      string
	Title     string
	Scenarios []entities.Scenario
}

// BuiltIn returns the suites shipped with the tool, in run order
func BuiltIn() []Suite {
	suites := []Suite{
		smokeSuite(),
		homepageSuite(),
		navigationSuite(),
		whatWeDoSuite(),
		projectsSuite(),
	}
	for i := range suites {
		for j := range suites[i].Scenarios {
			suites[i].Scenarios[j].Suite = suites[i].Name
		}
	}
	return suites
}

// Select returns the scenarios of the named suites (all when names is empty)
// whose name contains grep
func Select(suites []Suite, names []string, grep string) ([]entities.Scenario, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	for n := range wanted {
		found := false
		for _, s := range suites {
			if s.Name == n {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown suite %q", n)
		}
	}

	grep = strings.ToLower(grep)
	var out []entities.Scenario
	for _, s := range suites {
		if len(wanted) > 0 && !wanted[s.Name] {
			continue
		}
		for _, sc := range s.Scenarios {
			if grep != "" && !strings.Contains(strings.ToLower(sc.ID()), grep) {
				continue
			}
			out = append(out, sc)
		}
	}
	return out, nil
}

func smokeSuite() Suite {
	settle := entities.Action{Type: entities.ActionWait, Duration: 2 * time.Second, Description: "let the page render"}
	return Suite{
		Name:  "smoke",
		Title: "Smoke Tests",
		Scenarios: []entities.Scenario{
			{
				Name: "website should be accessible",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertStatus, Value: "200"},
				},
			},
			{
				Name: "page title should be set",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertTitleNotEmpty},
				},
			},
			{
				Name:  "navigation should exist on homepage",
				Steps: []entities.Action{settle},
				Assertions: []entities.Assertion{
					{Kind: entities.AssertCountGreater, Target: "common.any_nav", Threshold: 0},
				},
			},
			{
				Name:  "page should have main content",
				Steps: []entities.Action{settle},
				Assertions: []entities.Assertion{
					{Kind: entities.AssertVisible, Target: "common.main"},
				},
			},
		},
	}
}

func homepageSuite() Suite {
	return Suite{
		Name:  "homepage",
		Title: "Homepage Tests",
		Scenarios: []entities.Scenario{
			{
				Name: "should load homepage and verify title contains site name",
				Page: "home",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertTitleMatches, Pattern: `(?i)Home|Pangeo|Fabrix|InfraFabrix|Infra`},
				},
			},
			{
				Name: "should have primary navigation with logical items",
				Page: "home",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertCountGreater, Target: "common.nav_links", Threshold: 3},
				},
			},
			{
				Name: "should display hero heading",
				Page: "home",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertVisible, Target: "home.hero_heading", Timeout: visibleTimeout},
				},
			},
			{
				Name: "should have working What We Do link",
				Page: "home",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertCountGreater, Target: "home.what_we_do_link", Threshold: 0},
				},
			},
			{
				Name: "should have working Projects link",
				Page: "home",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertCountGreater, Target: "home.projects_link", Threshold: 0},
				},
			},
			{
				Name: "should have working Contact link",
				Page: "home",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertCountGreater, Target: "home.contact_link", Threshold: 0},
				},
			},
		},
	}
}

// navigateTo clicks a navigation link and checks the route and heading that follow
func navigateTo(name, via, route string) entities.Scenario {
	return entities.Scenario{
		Name: name,
		Page: "navigation",
		Steps: []entities.Action{
			{Type: entities.ActionClick, Locator: via, Description: "click " + via},
			{Type: entities.ActionWait, Duration: navSettle, Description: "wait for the section to render"},
		},
		Assertions: []entities.Assertion{
			{Kind: entities.AssertURLContains, Value: route},
			{Kind: entities.AssertTextNotEmpty, Target: "common.any_heading"},
		},
	}
}

func navigationSuite() Suite {
	return Suite{
		Name:  "navigation",
		Title: "Navigation Tests",
		Scenarios: []entities.Scenario{
			{
				Name: "should display navigation bar",
				Page: "navigation",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertCountGreater, Target: "common.nav_links", Threshold: 0},
				},
			},
			navigateTo("should navigate to What We Do page and verify URL/heading change", "navigation.what_we_do_link", "#page-3"),
			navigateTo("should navigate to Projects page and verify URL/heading change", "navigation.projects_link", "#page-4"),
			navigateTo("should navigate to Contact page and verify URL/heading change", "navigation.contact_link", "#page-6"),
			{
				Name: "should return to home when clicking home link",
				Page: "navigation",
				Steps: []entities.Action{
					{Type: entities.ActionClick, Selector: `a[href="#page-4"]`, Description: "navigate away to projects"},
					{Type: entities.ActionWait, Duration: navSettle, Description: "wait for projects"},
					{Type: entities.ActionClick, Locator: "common.home_any", Description: "click any link home"},
					{Type: entities.ActionWait, Duration: navSettle, Description: "wait for home"},
				},
				Assertions: []entities.Assertion{
					{Kind: entities.AssertURLNotContains, Value: "#page-4"},
				},
			},
			{
				Name: "should verify all navigation links are working",
				Page: "navigation",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertCountGreater, Selector: `a[href="#page-3"]`, Threshold: 0},
					{Kind: entities.AssertCountGreater, Selector: `a[href="#page-4"]`, Threshold: 0},
					{Kind: entities.AssertCountGreater, Selector: `a[href="#page-6"]`, Threshold: 0},
				},
			},
		},
	}
}

func whatWeDoSuite() Suite {
	return Suite{
		Name:  "what_we_do",
		Title: "What We Do Tests",
		Scenarios: []entities.Scenario{
			{
				Name: "should navigate to What We Do section",
				Page: "what_we_do",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertURLContains, Value: "#page-3"},
				},
			},
			{
				Name: "should display What We Do heading",
				Page: "what_we_do",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertVisible, Target: "what_we_do.heading", Timeout: visibleTimeout},
				},
			},
			{
				Name: "should display What We Do content section",
				Page: "what_we_do",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertVisible, Target: "what_we_do.content", Timeout: visibleTimeout},
				},
			},
			{
				Name: "should have service information",
				Page: "what_we_do",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertTextLonger, Target: "what_we_do.content", Threshold: 50},
				},
			},
		},
	}
}

func projectsSuite() Suite {
	return Suite{
		Name:  "projects",
		Title: "Projects Tests",
		Scenarios: []entities.Scenario{
			{
				Name: "should navigate to Projects section",
				Page: "projects",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertURLContains, Value: "#page-4"},
				},
			},
			{
				Name: "should display Projects heading",
				Page: "projects",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertVisible, Target: "projects.heading", Timeout: visibleTimeout},
				},
			},
			{
				Name:  "should have at least 3 project entries or images visible",
				Page:  "projects",
				Extra: 3 * time.Second,
				Assertions: []entities.Assertion{
					{
						Kind:      entities.AssertMaxCountAtLeast,
						Targets:   []string{"common.images", "common.sections", "common.items"},
						Threshold: 3,
					},
				},
			},
			{
				Name: "should display project content",
				Page: "projects",
				Assertions: []entities.Assertion{
					{Kind: entities.AssertTextLonger, Target: "common.main", Threshold: 100},
				},
			},
		},
	}
}
