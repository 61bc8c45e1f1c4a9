package domain

import (
	"fmt"
	"strings"
)

// Default views.
const (
	RouteRoot      = "/"
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteDashboard = "/dashboard"
)

// Action tells the view router what to do with a navigation.
type Action int

const (
	// ActionRender shows the requested view.
	ActionRender Action = iota
	// ActionRedirect shows Decision.Route instead.
	ActionRedirect
)

// String returns "render" or "redirect".
func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Decision reasons.
const (
	ReasonAllowed    = "allowed"
	ReasonProtected  = "protected"
	ReasonPublicOnly = "public_only"
	ReasonUnknown    = "unknown"
)

// Decision is the outcome of evaluating a navigation.
type Decision struct {
	Action Action `json:"action"`
	Route  string `json:"route"`
	Reason string `json:"reason"`
}

// IsRedirect reports whether the router must show another view.
func (d Decision) IsRedirect() bool {
	return d.Action == ActionRedirect
}

// RouteTable classifies the views known to the client.
type RouteTable struct {
	Login     string
	Register  string
	Landing   string
	Protected []string
}

// DefaultRouteTable returns the canonical login/register/dashboard set.
func DefaultRouteTable() RouteTable {
	return RouteTable{
		Login:     RouteLogin,
		Register:  RouteRegister,
		Landing:   RouteDashboard,
		Protected: []string{RouteDashboard},
	}
}

// Normalize normalizes every route in the table.
func (t RouteTable) Normalize() RouteTable {
	out := RouteTable{
		Login:     NormalizeRoute(t.Login),
		Register:  NormalizeRoute(t.Register),
		Landing:   NormalizeRoute(t.Landing),
		Protected: make([]string, 0, len(t.Protected)),
	}
	for _, r := range t.Protected {
		out.Protected = append(out.Protected, NormalizeRoute(r))
	}
	return out
}

// IsPublicOnly reports whether route is the login or register view.
func (t RouteTable) IsPublicOnly(route string) bool {
	return route == t.Login || route == t.Register
}

// IsProtected reports whether route requires a signed-in user.
func (t RouteTable) IsProtected(route string) bool {
	for _, r := range t.Protected {
		if r == route {
			return true
		}
	}
	return false
}

// Routes lists every known route, public-only views first.
func (t RouteTable) Routes() []string {
	out := []string{t.Login, t.Register}
	for _, r := range t.Protected {
		if r != t.Login && r != t.Register {
			out = append(out, r)
		}
	}
	return out
}

// NormalizeRoute strips query and fragment, ensures a leading slash, and
// removes trailing slashes except for the root.
func NormalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	for len(route) > 1 && strings.HasSuffix(route, "/") {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}
