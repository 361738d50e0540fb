package server

import (
	"log/slog"
	"net/http"

	"ecommerce-dashboard/internal/handlers"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/views"
)

// Server routes the dashboard page, the JSON API and the SSE endpoint. Every
// route is GET only; other methods get 405 from the mux.
type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, presenter *views.Presenter, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, presenter, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	routes := map[string]http.HandlerFunc{
		"/{$}":         templateHandlers.Dashboard,
		"/health":      s.apiHandlers.HandleHealth,
		"/admin/stats": s.apiHandlers.HandleStats,

		// Dashboard tables, all accepting ?start=YYYY-MM-DD&end=YYYY-MM-DD
		"/api/date-range":    s.apiHandlers.HandleDateRange,
		"/api/summary":       s.apiHandlers.HandleSummary,
		"/api/daily-metrics": s.apiHandlers.HandleDailyMetrics,
		"/api/categories":    s.apiHandlers.HandleCategories,
		"/api/payments":      s.apiHandlers.HandlePayments,
		"/api/rfm":           s.apiHandlers.HandleRFM,

		// Datastar recomputation for the startDate/endDate signals
		"/sse/dashboard": s.sseHandlers.HandleDashboard,
	}

	for path, handler := range routes {
		s.mux.HandleFunc(http.MethodGet+" "+path, handler)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
