package handlers

import (
	"fmt"

	"ecommerce-dashboard/internal/models"
)

// resolveRange parses a YYYY-MM-DD pair. A missing side falls back to the
// dataset bounds. An inverted or out-of-bounds range is returned as is; it
// simply selects no rows.
func resolveRange(bounds models.DateRange, start, end string) (models.DateRange, error) {
	if start == "" {
		start = models.FormatDay(bounds.Start)
	}
	if end == "" {
		end = models.FormatDay(bounds.End)
	}

	r, err := models.ParseDateRange(start, end)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("date range %q..%q: %w", start, end, err)
	}
	return r, nil
}
