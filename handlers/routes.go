// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods, handlers, and rate class

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method    string           // HTTP method (GET, POST, etc.)
	Path      string           // URL path (e.g., "/api/v1/health")
	Handler   http.HandlerFunc // Handler function
	Expensive bool             // Rate limited with the tighter rank budget
}

// Pattern is the Go 1.22 ServeMux pattern for the route
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health & Status
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health},

		// Planning
		{Method: http.MethodPost, Path: "/api/v1/rank", Handler: h.Rank, Expensive: true},

		// Catalog
		{Method: http.MethodGet, Path: "/api/v1/providers", Handler: h.Providers},
		{Method: http.MethodGet, Path: "/api/v1/models", Handler: h.Models},
		{Method: http.MethodGet, Path: "/api/v1/traffic-patterns", Handler: h.TrafficPatterns},
		{Method: http.MethodPost, Path: "/api/v1/catalog/reload", Handler: h.ReloadCatalog, Expensive: true},

		// Documentation
		{Method: http.MethodGet, Path: "/api/v1/openapi.yaml", Handler: h.OpenAPISpec},
	}
}
