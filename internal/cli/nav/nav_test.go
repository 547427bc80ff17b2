package nav

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	assert.Equal(t, "", r.Last())

	r.Navigate(RouteDashboard)
	r.Navigate(RouteLogin)

	assert.Equal(t, []string{RouteDashboard, RouteLogin}, r.Routes())
	assert.Equal(t, RouteLogin, r.Last())
}

func TestTerminal_DeduplicatesRepeatedRoutes(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Navigate(RouteLogin)
	term.Navigate(RouteLogin)

	assert.Equal(t, 1, strings.Count(buf.String(), "llmadmin login"))

	term.Navigate(RouteDashboard)
	assert.Contains(t, buf.String(), "llmadmin dash")
}

func TestFunc(t *testing.T) {
	var got string
	Func(func(route string) { got = route }).Navigate(RouteRegister)
	assert.Equal(t, RouteRegister, got)
}
