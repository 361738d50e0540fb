package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
	"ecommerce-dashboard/internal/views"
	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
)

// rangeSignals are the date inputs bound on the dashboard page.
type rangeSignals struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	presenter *views.Presenter
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, presenter *views.Presenter, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		presenter: presenter,
		logger:    logger,
	}
}

func renderString(r *http.Request, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(r.Context(), &buf)
	return buf.String(), err
}

// HandleDashboard recomputes every view for the selected range and patches
// the page: metric cards and category table as elements, chart series as
// the charts signal.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var signals rangeSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, errors.Validation(err, "invalid datastar signals"), requestID)
		return
	}

	rng, err := resolveRange(h.analytics.Bounds(), signals.StartDate, signals.EndDate)
	if err != nil {
		errors.WriteError(w, h.logger, errors.Validation(err, "startDate and endDate must be YYYY-MM-DD dates"), requestID)
		return
	}

	d, err := h.analytics.Dashboard(r.Context(), rng)
	if err != nil {
		errors.WriteError(w, h.logger, errors.FromComputation(err), requestID)
		return
	}
	view := h.presenter.Build(d)

	metricsHTML, err := renderString(r, templates.Metrics(view.Metrics))
	if err != nil {
		h.logger.Error("render metrics", "error", err, "request_id", requestID)
		return
	}
	tableHTML, err := renderString(r, templates.CategoryTable(view.Charts.Categories))
	if err != nil {
		h.logger.Error("render category table", "error", err, "request_id", requestID)
		return
	}
	chartSignals, err := json.Marshal(map[string]any{
		"charts": view.Charts,
	})
	if err != nil {
		h.logger.Error("marshal charts data", "error", err, "request_id", requestID)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElements(metricsHTML); err != nil {
		h.logger.Warn("patch metrics", "error", err, "request_id", requestID)
		return
	}
	if err := sse.PatchElements(tableHTML); err != nil {
		h.logger.Warn("patch category table", "error", err, "request_id", requestID)
		return
	}
	if err := sse.PatchSignals(chartSignals); err != nil {
		h.logger.Warn("patch charts", "error", err, "request_id", requestID)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
