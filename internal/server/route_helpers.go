package server

import (
	"net/http"
	"sort"
	"strings"
)

// RouteHandler serves one method of a route
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers; nil entries are skipped
type MethodRouter map[string]RouteHandler

// allowed lists the methods with a handler, sorted for a stable Allow header
func (m MethodRouter) allowed() string {
	methods := make([]string, 0, len(m))
	for method, h := range m {
		if h != nil {
			methods = append(methods, method)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// RouteByMethod dispatches on r.Method. Unrouted methods get 405 with an
// Allow header naming the routed ones.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler := routes[r.Method]
	if handler == nil {
		w.Header().Set("Allow", routes.allowed())
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}

// RouteResourceCollection routes a collection: GET lists, POST creates
func RouteResourceCollection(w http.ResponseWriter, r *http.Request, list, create RouteHandler) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:  list,
		http.MethodPost: create,
	})
}

// RouteResourceItem routes one stored item: GET fetches, DELETE removes
func RouteResourceItem(w http.ResponseWriter, r *http.Request, get, remove RouteHandler) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:    get,
		http.MethodDelete: remove,
	})
}
