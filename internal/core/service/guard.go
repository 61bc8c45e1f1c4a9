package service

import "github.com/yndnr/timi-go/internal/core/domain"

// RouteGuard decides which view to show for a navigation.
//
// Evaluate is a pure function of its inputs: it keeps no state and does no
// I/O, so callers may evaluate as often as they like.
type RouteGuard struct {
	routes domain.RouteTable
}

// NewRouteGuard creates a guard over the given route table.
func NewRouteGuard(routes domain.RouteTable) *RouteGuard {
	return &RouteGuard{routes: routes.Normalize()}
}

// Routes returns the normalised route table.
func (g *RouteGuard) Routes() domain.RouteTable {
	return g.routes
}

// Home returns where a user in state lands by default.
func (g *RouteGuard) Home(state domain.SessionState) string {
	if state.LoggedIn {
		return g.routes.Landing
	}
	return g.routes.Login
}

// Evaluate applies, in order:
//  1. protected view while anonymous: redirect to login
//  2. login/register while signed in: redirect to landing
//  3. unknown view: redirect home
//  4. otherwise render
func (g *RouteGuard) Evaluate(state domain.SessionState, requested string) domain.Decision {
	route := domain.NormalizeRoute(requested)

	switch {
	case g.routes.IsProtected(route) && !state.LoggedIn:
		return redirect(g.routes.Login, domain.ReasonProtected)
	case g.routes.IsPublicOnly(route) && state.LoggedIn:
		return redirect(g.routes.Landing, domain.ReasonPublicOnly)
	case !g.routes.IsProtected(route) && !g.routes.IsPublicOnly(route):
		return redirect(g.Home(state), domain.ReasonUnknown)
	default:
		return domain.Decision{Action: domain.ActionRender, Route: route, Reason: domain.ReasonAllowed}
	}
}

func redirect(route, reason string) domain.Decision {
	return domain.Decision{Action: domain.ActionRedirect, Route: route, Reason: reason}
}
