package repl

import (
	"sync"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/core/service"
	"github.com/yndnr/timi-go/internal/telemetry/metric"
)

// StateSource reports the current session state.
type StateSource interface {
	State() domain.SessionState
}

// maxBackStack bounds the back stack.
const maxBackStack = 50

// Navigator applies route guard decisions to the shell's current view.
type Navigator struct {
	guard   *service.RouteGuard
	session StateSource
	metrics *metric.Registry

	mu      sync.Mutex
	current string
	back    []string
}

// NewNavigator creates a Navigator. metrics may be nil.
func NewNavigator(guard *service.RouteGuard, session StateSource, metrics *metric.Registry) *Navigator {
	return &Navigator{
		guard:   guard,
		session: session,
		metrics: metrics,
	}
}

// Current returns the view being shown, or "" before the first navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate moves to route, or wherever the guard redirects it.
func (n *Navigator) Navigate(route string) domain.Decision {
	n.mu.Lock()
	defer n.mu.Unlock()

	d := n.evaluateLocked(route)
	if n.current != "" && n.current != d.Route {
		n.back = append(n.back, n.current)
		if len(n.back) > maxBackStack {
			n.back = n.back[1:]
		}
	}
	n.current = d.Route
	return d
}

// Refresh re-evaluates the current view against the latest session state.
// The second result is false when the view did not change.
func (n *Navigator) Refresh() (domain.Decision, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == "" {
		return domain.Decision{}, false
	}
	d := n.evaluateLocked(n.current)
	if d.Route == n.current {
		return d, false
	}
	n.current = d.Route
	return d, true
}

// Back returns to the previous view, re-checked by the guard. The second
// result is false when there is nothing to go back to.
func (n *Navigator) Back() (domain.Decision, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.back) == 0 {
		return domain.Decision{}, false
	}
	prev := n.back[len(n.back)-1]
	n.back = n.back[:len(n.back)-1]

	d := n.evaluateLocked(prev)
	n.current = d.Route
	return d, true
}

// Routes lists the views a user can navigate to.
func (n *Navigator) Routes() []string {
	return n.guard.Routes().Routes()
}

func (n *Navigator) evaluateLocked(route string) domain.Decision {
	d := n.guard.Evaluate(n.session.State(), route)
	n.metrics.ObserveDecision(d.Action.String(), d.Reason)
	return d
}
