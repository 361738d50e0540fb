// Package views turns computed dashboard tables into what the page shows:
// formatted headline numbers and chart series. Nothing here feeds back into
// the computation.
package views

import (
	"fmt"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/models"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnknownLabel replaces an empty category or payment type in charts.
const UnknownLabel = "unknown"

type Metrics struct {
	Range        string `json:"range"`
	TotalOrders  string `json:"total_orders"`
	TotalRevenue string `json:"total_revenue"`
}

type Charts struct {
	Daily      []models.DailyMetrics     `json:"daily"`
	Categories []models.CategoryQuantity `json:"categories"`
	Payments   []models.PaymentCount     `json:"payments"`
	Recency    []Bin                     `json:"recency"`
	Frequency  []Bin                     `json:"frequency"`
	Monetary   []Bin                     `json:"monetary"`
}

type View struct {
	Metrics Metrics `json:"metrics"`
	Charts  Charts  `json:"charts"`
}

type Presenter struct {
	cfg     config.DashboardConfig
	unit    currency.Unit
	printer *message.Printer
}

func NewPresenter(cfg config.DashboardConfig) (*Presenter, error) {
	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", cfg.Currency, err)
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", cfg.Locale, err)
	}
	return &Presenter{
		cfg:     cfg,
		unit:    unit,
		printer: message.NewPrinter(tag),
	}, nil
}

func (p *Presenter) Config() config.DashboardConfig {
	return p.cfg
}

// Currency formats an amount in the configured currency and locale.
func (p *Presenter) Currency(amount float64) string {
	return p.printer.Sprint(currency.Symbol(p.unit.Amount(amount)))
}

func (p *Presenter) Count(n int) string {
	return humanize.Comma(int64(n))
}

func (p *Presenter) Build(d *models.Dashboard) View {
	recency := make([]float64, len(d.RFM))
	frequency := make([]float64, len(d.RFM))
	monetary := make([]float64, len(d.RFM))
	for i, row := range d.RFM {
		recency[i] = float64(row.Recency)
		frequency[i] = float64(row.Frequency)
		monetary[i] = row.Monetary
	}

	return View{
		Metrics: Metrics{
			Range:        d.Range.String(),
			TotalOrders:  p.Count(d.TotalOrders),
			TotalRevenue: p.Currency(d.TotalRevenue),
		},
		Charts: Charts{
			Daily:      d.Daily,
			Categories: TopCategories(d.Categories, p.cfg.TopCategories),
			Payments:   labelPayments(d.Payments),
			Recency:    AutoHistogram(recency, p.cfg.RecencyBins),
			Frequency:  AutoHistogram(frequency, p.cfg.FrequencyBins),
			Monetary:   Histogram(monetary, p.cfg.MonetaryBins, 0, p.cfg.MonetaryClip),
		},
	}
}

// TopCategories returns a labelled copy of the first n rows of a ranking.
func TopCategories(ranking []models.CategoryQuantity, n int) []models.CategoryQuantity {
	if n < len(ranking) {
		ranking = ranking[:n]
	}
	result := make([]models.CategoryQuantity, len(ranking))
	for i, row := range ranking {
		if row.ProductCategoryName == "" {
			row.ProductCategoryName = UnknownLabel
		}
		result[i] = row
	}
	return result
}

func labelPayments(rows []models.PaymentCount) []models.PaymentCount {
	result := make([]models.PaymentCount, len(rows))
	for i, row := range rows {
		if row.PaymentType == "" {
			row.PaymentType = UnknownLabel
		}
		result[i] = row
	}
	return result
}
