package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/ternarybob/vipaii/internal/handlers"
)

// RouteHandler is a function type for HTTP handlers
type RouteHandler func(http.ResponseWriter, *http.Request)

// IDHandler is a handler for a resource addressed by id
type IDHandler func(http.ResponseWriter, *http.Request, string)

// MethodRouter maps HTTP methods to handlers
type MethodRouter map[string]RouteHandler

// allowed lists the methods with a handler, sorted, for the Allow header
func (m MethodRouter) allowed() string {
	methods := make([]string, 0, len(m))
	for method, handler := range m {
		if handler != nil {
			methods = append(methods, method)
		}
	}
	slices.Sort(methods)
	return strings.Join(methods, ", ")
}

// RouteByMethod dispatches on r.Method. A method without a handler gets a
// JSON 405 carrying an Allow header.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	if handler, ok := routes[r.Method]; ok && handler != nil {
		handler(w, r)
		return
	}
	w.Header().Set("Allow", routes.allowed())
	handlers.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// IDRoute is one sub-resource below a collection: {id} followed by Suffix.
// An empty Suffix addresses the item itself.
type IDRoute struct {
	Suffix  []string
	Methods map[string]IDHandler
}

// IDRoutes dispatches paths of the form <prefix>{id}/<suffix...>
type IDRoutes struct {
	Prefix   string
	Routes   []IDRoute
	NotFound RouteHandler
}

func (t IDRoutes) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := handlers.PathSegments(r.URL.Path, t.Prefix)
	if len(segments) == 0 {
		t.NotFound(w, r)
		return
	}

	id, suffix := segments[0], segments[1:]
	for _, route := range t.Routes {
		if !slices.Equal(route.Suffix, suffix) {
			continue
		}
		methods := make(MethodRouter, len(route.Methods))
		for method, handler := range route.Methods {
			methods[method] = withID(handler, id)
		}
		RouteByMethod(w, r, methods)
		return
	}

	t.NotFound(w, r)
}

// withID binds an id extracted from the path to an IDHandler
func withID(handler IDHandler, id string) RouteHandler {
	if handler == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) {
		handler(w, r, id)
	}
}
