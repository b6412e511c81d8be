package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Mux is a [Router] backed by a chi router.
//
// Middleware must be added before the first route, as chi requires.
type Mux struct {
	chi *chi.Mux
}

// NewRouter creates a [Mux] that recovers handler panics.
func NewRouter() *Mux {
	m := &Mux{chi: chi.NewRouter()}
	m.chi.Use(middleware.Recoverer)
	return m
}

// Use adds [Middleware] to the stack, applied in the order it's added.
func (m *Mux) Use(mw ...Middleware) {
	for _, fn := range mw {
		m.chi.Use(fn)
	}
}

// Handle registers handler for method and path. Other methods get 405.
func (m *Mux) Handle(method, path string, handler http.Handler) {
	m.chi.Method(method, path, handler)
}

// Handler registers every route returned by [Handler.Routes] for GET.
func (m *Mux) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		m.chi.Method(http.MethodGet, route, handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (m *Mux) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.chi.ServeHTTP(w, req)
}
