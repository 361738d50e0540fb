package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
)

const cacheMaxAge = "public, max-age=300"

var cacheHeaders = map[string]string{
	"Cache-Control": cacheMaxAge,
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type summary struct {
	Range        models.DateRange `json:"range"`
	TotalOrders  int              `json:"total_orders"`
	TotalRevenue float64          `json:"total_revenue"`
}

// dashboard computes the views for the start/end query parameters. It writes
// the error response itself and returns nil when the request cannot be served.
func (h *APIHandlers) dashboard(w http.ResponseWriter, r *http.Request) *models.Dashboard {
	requestID := observability.GetRequestID(r.Context())

	rng, err := resolveRange(h.analytics.Bounds(), r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		errors.WriteError(w, h.logger, errors.Validation(err, "start and end must be YYYY-MM-DD dates"), requestID)
		return nil
	}

	d, err := h.analytics.Dashboard(r.Context(), rng)
	if err != nil {
		errors.WriteError(w, h.logger, errors.FromComputation(err), requestID)
		return nil
	}
	return d
}

// respond writes data in the success envelope. Encoding only fails once the
// client is gone, so the error is logged and dropped.
func (h *APIHandlers) respond(w http.ResponseWriter, r *http.Request, data any, headers map[string]string) {
	if err := errors.WriteSuccess(w, data, headers); err != nil {
		h.logger.Warn("failed to write response",
			"error", err,
			"path", r.URL.Path,
			"request_id", observability.GetRequestID(r.Context()),
		)
	}
}

func (h *APIHandlers) HandleDateRange(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.analytics.Bounds(), cacheHeaders)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	d := h.dashboard(w, r)
	if d == nil {
		return
	}

	h.respond(w, r, summary{
		Range:        d.Range,
		TotalOrders:  d.TotalOrders,
		TotalRevenue: d.TotalRevenue,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleDailyMetrics(w http.ResponseWriter, r *http.Request) {
	d := h.dashboard(w, r)
	if d == nil {
		return
	}

	h.respond(w, r, d.Daily, cacheHeaders)
}

// HandleCategories returns the category ranking. The optional limit
// parameter keeps only the first rows.
func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	limit := -1
	if value := r.URL.Query().Get("limit"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			errors.WriteError(w, h.logger,
				errors.Validation(err, "limit must be a non-negative integer"),
				observability.GetRequestID(r.Context()))
			return
		}
		limit = n
	}

	d := h.dashboard(w, r)
	if d == nil {
		return
	}

	data := d.Categories
	if limit >= 0 && limit < len(data) {
		data = data[:limit]
	}
	h.respond(w, r, data, cacheHeaders)
}

func (h *APIHandlers) HandlePayments(w http.ResponseWriter, r *http.Request) {
	d := h.dashboard(w, r)
	if d == nil {
		return
	}

	h.respond(w, r, d.Payments, cacheHeaders)
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	d := h.dashboard(w, r)
	if d == nil {
		return
	}

	h.respond(w, r, d.RFM, cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	h.respond(w, r, healthData, nil)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	h.respond(w, r, stats, nil)
}
