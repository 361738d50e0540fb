package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Analytics owns the transaction table loaded at startup. The table is
// replaced as a whole and never modified afterwards, so readers only need
// the lock to take a reference to it.
type Analytics struct {
	mu       sync.RWMutex
	data     []models.Transaction
	bounds   models.DateRange
	loadedAt time.Time
	cacheDir string
	logger   *slog.Logger
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

// WithCacheDir enables the parsed snapshot cache in dir.
func WithCacheDir(dir string) Option {
	return func(a *Analytics) { a.cacheDir = dir }
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		data:   []models.Transaction{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analytics) SetData(data []models.Transaction) {
	bounds := dataBounds(data)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = data
	a.bounds = bounds
	a.loadedAt = time.Now()
}

func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	if a.cacheDir != "" {
		if cached, err := a.loadFromCache(filename); err == nil {
			fileInfo, err := os.Stat(filename)
			if err == nil && fileInfo.ModTime().Before(cached.CreatedAt) {
				a.SetData(cached.Transactions)
				a.logger.Info("loaded from cache", "records", len(cached.Transactions))
				return nil
			}
		}
	}

	start := time.Now()
	a.logger.Info("processing CSV file", "filename", filename)

	data, err := readTransactions(ctx, filename)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}
	a.SetData(data)

	if a.cacheDir != "" {
		if err := a.saveToCache(filename, data); err != nil {
			a.logger.Warn("failed to save cache", "error", err)
		}
	}

	duration := time.Since(start)
	a.logger.Info("csv processing complete",
		"records", len(data),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(data))/duration.Seconds()))

	return nil
}

// Bounds returns the first and last purchase day of the loaded table.
func (a *Analytics) Bounds() models.DateRange {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bounds
}

// Dashboard filters the table to r and computes every view from the
// filtered rows.
func (a *Analytics) Dashboard(ctx context.Context, r models.DateRange) (*models.Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.dashboard")
	defer span.End(a.logger)
	span.SetTag("range", r.String())

	a.mu.RLock()
	data := a.data
	a.mu.RUnlock()

	filtered := FilterByDateRange(data, r)
	span.SetTag("rows", fmt.Sprint(len(filtered)))

	d := &models.Dashboard{Range: r}

	// Each aggregator writes only its own field.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Daily = DailyMetrics(filtered)
		return gctx.Err()
	})
	g.Go(func() error {
		d.Categories = CategoryRanking(filtered)
		return gctx.Err()
	})
	g.Go(func() error {
		d.Payments = PaymentDistribution(filtered)
		return gctx.Err()
	})
	g.Go(func() error {
		d.RFM = RFM(filtered)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("compute dashboard %s: %w", r, err)
	}

	for _, day := range d.Daily {
		d.TotalOrders += day.OrderCount
		d.TotalRevenue += day.Revenue
	}
	return d, nil
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	data, bounds, loadedAt := a.data, a.bounds, a.loadedAt
	a.mu.RUnlock()

	orders := make(map[string]struct{})
	customers := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, tx := range data {
		orders[tx.OrderID] = struct{}{}
		customers[tx.CustomerID] = struct{}{}
		categories[tx.Category] = struct{}{}
	}

	return map[string]any{
		"record_count": len(data),
		"orders":       len(orders),
		"customers":    len(customers),
		"categories":   len(categories),
		"date_range":   bounds,
		"loaded_at":    loadedAt,
	}
}

func dataBounds(data []models.Transaction) models.DateRange {
	if len(data) == 0 {
		return models.DateRange{}
	}
	first, last := data[0].PurchasedAt, data[0].PurchasedAt
	for _, tx := range data[1:] {
		if tx.PurchasedAt.Before(first) {
			first = tx.PurchasedAt
		}
		if tx.PurchasedAt.After(last) {
			last = tx.PurchasedAt
		}
	}
	return models.NewDateRange(first, last)
}
