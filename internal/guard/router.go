package guard

import (
	"context"
	"fmt"
)

// Route is a navigation target
type Route struct {
	Name         string
	RequiresAuth bool
}

const (
	LoginRoute    = "login"
	RegisterRoute = "register"
	HomeRoute     = "home"
)

// DefaultRoutes are the public auth routes and the private home route
func DefaultRoutes() []Route {
	return []Route{
		{Name: LoginRoute, RequiresAuth: false},
		{Name: RegisterRoute, RequiresAuth: false},
		{Name: HomeRoute, RequiresAuth: true},
	}
}

// Router resolves guard decisions against a route table
type Router struct {
	routes  map[string]Route
	session SessionState
}

// NewRouter creates a router over routes. Login and home must be present.
func NewRouter(s SessionState, routes ...Route) (*Router, error) {
	r := &Router{routes: make(map[string]Route, len(routes)), session: s}
	for _, route := range routes {
		if _, dup := r.routes[route.Name]; dup {
			return nil, fmt.Errorf("duplicate route %q", route.Name)
		}
		r.routes[route.Name] = route
	}
	for _, required := range []string{LoginRoute, HomeRoute} {
		if _, ok := r.routes[required]; !ok {
			return nil, fmt.Errorf("route table has no %q route", required)
		}
	}
	return r, nil
}

// Route looks up a route by name
func (r *Router) Route(name string) (Route, bool) {
	route, ok := r.routes[name]
	return route, ok
}

// Navigate evaluates the guard for the named route and returns the route the
// navigation actually ends on together with the decision that led there.
func (r *Router) Navigate(ctx context.Context, name string) (Route, Decision, error) {
	target, ok := r.routes[name]
	if !ok {
		return Route{}, Proceed, fmt.Errorf("unknown route %q", name)
	}

	decision := Evaluate(ctx, target.RequiresAuth, r.session)
	switch decision {
	case RedirectLogin:
		return r.routes[LoginRoute], decision, nil
	case RedirectHome:
		return r.routes[HomeRoute], decision, nil
	default:
		return target, decision, nil
	}
}
