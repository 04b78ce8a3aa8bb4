// Package generichttp defines a small route-table abstraction used to wrap
// devices in an HTTP interface, and typed JSON payload envelopes shared by
// the handlers.
package generichttp

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi"
)

// MethodPath is one HTTP route: a method and a path below the mount point
type MethodPath struct {
	Method string
	Path   string
}

// RouteTable maps routes to their handlers
type RouteTable map[MethodPath]http.HandlerFunc

// Bind attaches every route in the table to r
func (rt RouteTable) Bind(r chi.Router) {
	for mp, handler := range rt {
		r.Method(mp.Method, mp.Path, handler)
	}
}

// Endpoints lists the routes in the table as "METHOD path" strings, sorted
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for mp := range rt {
		routes = append(routes, mp.Method+" "+mp.Path)
	}
	sort.Strings(routes)
	return routes
}

// HTTPer is a type which exposes a route table
type HTTPer interface {
	RT() RouteTable
}

// SubMuxSanitize normalizes a user-supplied mount point: a leading slash is
// added if missing and a trailing slash is stripped
func SubMuxSanitize(stem string) string {
	if !strings.HasPrefix(stem, "/") {
		stem = "/" + stem
	}
	if len(stem) > 1 {
		stem = strings.TrimSuffix(stem, "/")
	}
	return stem
}
