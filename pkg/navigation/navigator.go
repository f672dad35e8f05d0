// Package navigation implements the screen stack of the client.
package navigation

import (
	"fmt"
	"sync"
)

// Route names a screen.
type Route string

const (
	Login       Route = "Login"
	Register    Route = "Register"
	Home        Route = "Home"
	EditProfile Route = "EditProfile"
)

// Routes lists every screen.
var Routes = []Route{Login, Register, Home, EditProfile}

// ParseRoute matches a route name exactly.
func ParseRoute(s string) (Route, error) {
	for _, r := range Routes {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown route %q", s)
}

// Title is the header shown for the screen.
func (r Route) Title() string {
	switch r {
	case Register:
		return "Register"
	case Home:
		return "Foot Size Predictor"
	case EditProfile:
		return "Edit Profile"
	}
	return "Login"
}

// Listener is told about screens entering and leaving the stack.
type Listener interface {
	Mounted(r Route)
	Unmounted(r Route)
}

// Navigator is a stack of routes. Navigating to a route already on the stack
// pops back to it; any other route is pushed.
type Navigator struct {
	mu        sync.Mutex
	stack     []Route
	listeners []Listener
}

// New creates a navigator showing initial.
func New(initial Route) *Navigator {
	return &Navigator{stack: []Route{initial}}
}

// Subscribe registers l. The initial route is not replayed.
func (n *Navigator) Subscribe(l Listener) {
	n.mu.Lock()
	n.listeners = append(n.listeners, l)
	n.mu.Unlock()
}

// Current is the route on top of the stack.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

// Stack returns a copy of the stack, bottom first.
func (n *Navigator) Stack() []Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Route(nil), n.stack...)
}

// Navigate shows r.
func (n *Navigator) Navigate(r Route) {
	n.mu.Lock()
	var popped []Route
	idx := -1
	for i, existing := range n.stack {
		if existing == r {
			idx = i
			break
		}
	}
	if idx >= 0 {
		for i := len(n.stack) - 1; i > idx; i-- {
			popped = append(popped, n.stack[i])
		}
		n.stack = n.stack[:idx+1]
	} else {
		n.stack = append(n.stack, r)
	}
	listeners := append([]Listener(nil), n.listeners...)
	n.mu.Unlock()

	for _, l := range listeners {
		for _, p := range popped {
			l.Unmounted(p)
		}
		if idx < 0 {
			l.Mounted(r)
		}
	}
}

// GoBack pops the top route. It reports false at the root.
func (n *Navigator) GoBack() bool {
	n.mu.Lock()
	if len(n.stack) == 1 {
		n.mu.Unlock()
		return false
	}
	top := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	listeners := append([]Listener(nil), n.listeners...)
	n.mu.Unlock()

	for _, l := range listeners {
		l.Unmounted(top)
	}
	return true
}
