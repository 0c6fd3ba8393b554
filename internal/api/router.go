package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "mcpgate/internal/api/context"
	"mcpgate/internal/api/handlers"
	"mcpgate/internal/api/middleware"
	"mcpgate/internal/pkg/errors"
)

type Dependencies struct {
	MCPHandler    *handlers.MCPHandler
	HealthHandler *handlers.HealthHandler
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	base := []func(http.HandlerFunc) http.HandlerFunc{middleware.RequestID, middleware.AccessLog}
	limited := base
	if deps.RateLimiter != nil {
		limited = append(append([]func(http.HandlerFunc) http.HandlerFunc{}, base...), deps.RateLimiter.Handle)
	}

	router.POST("/mcp", chain(deps.MCPHandler.Handle, limited...))
	router.GET("/healthz", chain(deps.HealthHandler.Check, base...))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
