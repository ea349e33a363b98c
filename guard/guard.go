// Package guard decides whether a named route may be entered given the
// session state: protected routes require a session, guest routes (login,
// register) require its absence.
package guard

import (
	"fmt"
	"net/url"
)

const (
	RouteLanding   = "quid"
	RouteLogin     = "login"
	RouteRegister  = "register"
	RouteDashboard = "dashboard"

	// RedirectParam carries the originally requested route on a login redirect.
	RedirectParam = "redirect"
)

type (
	Route struct {
		Name          string
		Path          string
		RequiresAuth  bool
		RequiresGuest bool
	}

	// Decision is the outcome of a guard check; Redirect is empty when allowed.
	Decision struct {
		Allow    bool
		Redirect string
		Query    url.Values
	}

	// Authenticated reports session presence.
	Authenticated interface {
		IsAuthenticated() bool
	}

	// Guard checks routes of a table against a session.
	Guard struct {
		routes  map[string]*Route
		session Authenticated
	}

	// RedirectError is returned by Guard.Enter when a route is refused.
	RedirectError struct {
		Route    string
		Decision Decision
	}
)

func (e *RedirectError) Error() string {
	switch e.Decision.Redirect {
	case RouteLogin:
		return fmt.Sprintf("%v requires login", e.Route)
	case RouteDashboard:
		return fmt.Sprintf("%v is not available while logged in", e.Route)
	}
	return fmt.Sprintf("%v redirected to %v", e.Route, e.Decision.Redirect)
}

// Decide applies the guard rules to route.
func Decide(route *Route, authenticated bool) Decision {
	switch {
	case route.RequiresAuth && !authenticated:
		target := route.Path
		if target == "" {
			target = route.Name
		}
		return Decision{Redirect: RouteLogin, Query: url.Values{RedirectParam: []string{target}}}
	case route.RequiresGuest && authenticated:
		return Decision{Redirect: RouteDashboard}
	}
	return Decision{Allow: true}
}

// DefaultRoutes mirrors the web front end's route table.
func DefaultRoutes() []*Route {
	return []*Route{
		{Name: RouteLanding, Path: "/"},
		{Name: RouteLogin, Path: "/login", RequiresGuest: true},
		{Name: RouteRegister, Path: "/register", RequiresGuest: true},
		{Name: RouteDashboard, Path: "/dashboard", RequiresAuth: true},
	}
}

// New creates a guard over routes.
func New(session Authenticated, routes ...*Route) *Guard {
	ret := &Guard{routes: map[string]*Route{}, session: session}
	for _, route := range routes {
		ret.routes[route.Name] = route
	}
	return ret
}

// Register adds or replaces a route.
func (g *Guard) Register(route *Route) {
	g.routes[route.Name] = route
}

// Lookup returns the named route; unknown names fall back to the landing route.
func (g *Guard) Lookup(name string) *Route {
	if route, ok := g.routes[name]; ok {
		return route
	}
	if route, ok := g.routes[RouteLanding]; ok {
		return route
	}
	return &Route{Name: RouteLanding, Path: "/"}
}

// Check decides entry for the named route.
func (g *Guard) Check(name string) Decision {
	return Decide(g.Lookup(name), g.session.IsAuthenticated())
}

// Enter returns a *RedirectError when the named route is refused.
func (g *Guard) Enter(name string) error {
	if decision := g.Check(name); !decision.Allow {
		return &RedirectError{Route: name, Decision: decision}
	}
	return nil
}
