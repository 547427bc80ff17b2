// Package nav carries post-auth navigation side effects (go to login, go to
// dashboard) from the auth layer to whatever front end is in charge.
package nav

import (
	"fmt"
	"io"
	"sync"
)

// Routes
const (
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteDashboard = "/dashboard"
)

// Navigator performs a client-side navigation
type Navigator interface {
	Navigate(route string)
}

// Func adapts a function to a Navigator
type Func func(route string)

func (f Func) Navigate(route string) { f(route) }

// Discard ignores every navigation
var Discard Navigator = Func(func(string) {})

// Recorder remembers every navigation. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *Recorder) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Routes returns the recorded navigations in order
func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Last returns the most recent navigation or ""
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

// Terminal turns navigations into hints for a CLI user.
// Repeated navigations to the same route print once.
type Terminal struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

// NewTerminal creates a navigator that writes hints to out
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Navigate(route string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if route == t.last {
		return
	}
	t.last = route

	switch route {
	case RouteLogin:
		fmt.Fprintln(t.out, "Not signed in. Run 'llmadmin login' to sign in.")
	case RouteDashboard:
		fmt.Fprintln(t.out, "Run 'llmadmin dash' to open the dashboard.")
	default:
		fmt.Fprintf(t.out, "Next: %s\n", route)
	}
}
