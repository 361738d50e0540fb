package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/views"
	"github.com/spf13/cobra"
)

type options struct {
	file   string
	start  string
	end    string
	top    int
	quiet  bool
	cfg    config.DashboardConfig
	output io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{cfg: config.DefaultDashboard(), output: out}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard views for a date range",
		Long: "Loads the transactions CSV and prints order totals, the category ranking, " +
			"payment distribution and an RFM summary for the selected range.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "all_data.csv", "path to the transactions CSV")
	cmd.Flags().StringVar(&opts.start, "start", "", "first day, YYYY-MM-DD (default: first day in data)")
	cmd.Flags().StringVar(&opts.end, "end", "", "last day, YYYY-MM-DD (default: last day in data)")
	cmd.Flags().IntVar(&opts.top, "top", opts.cfg.TopCategories, "number of categories to print")
	cmd.Flags().StringVar(&opts.cfg.Currency, "currency", opts.cfg.Currency, "ISO currency code used for revenue")
	cmd.Flags().StringVar(&opts.cfg.Locale, "locale", opts.cfg.Locale, "locale used to format revenue")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress load logging")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	if opts.top <= 0 {
		return fmt.Errorf("--top must be positive")
	}
	opts.cfg.TopCategories = opts.top

	presenter, err := views.NewPresenter(opts.cfg)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	analytics := services.NewAnalytics(services.WithLogger(logger))
	if err := analytics.LoadFromCSV(cmd.Context(), opts.file); err != nil {
		return err
	}

	bounds := analytics.Bounds()
	start, end := opts.start, opts.end
	if start == "" {
		start = models.FormatDay(bounds.Start)
	}
	if end == "" {
		end = models.FormatDay(bounds.End)
	}
	rng, err := models.ParseDateRange(start, end)
	if err != nil {
		return fmt.Errorf("invalid date range: %w", err)
	}

	d, err := analytics.Dashboard(cmd.Context(), rng)
	if err != nil {
		return err
	}
	return printReport(opts.output, d, presenter)
}

func printReport(out io.Writer, d *models.Dashboard, p *views.Presenter) error {
	view := p.Build(d)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Range\t%s\n", view.Metrics.Range)
	fmt.Fprintf(tw, "Total orders\t%s\n", view.Metrics.TotalOrders)
	fmt.Fprintf(tw, "Total revenue\t%s\n", view.Metrics.TotalRevenue)
	fmt.Fprintf(tw, "Days\t%d\n", len(d.Daily))

	fmt.Fprintf(tw, "\nProduct category\tQuantity\n")
	for _, row := range view.Charts.Categories {
		fmt.Fprintf(tw, "%s\t%s\n", row.ProductCategoryName, p.Count(row.Quantity))
	}

	fmt.Fprintf(tw, "\nPayment type\tCount\n")
	for _, row := range view.Charts.Payments {
		fmt.Fprintf(tw, "%s\t%s\n", row.PaymentType, p.Count(row.PaymentCount))
	}

	fmt.Fprintf(tw, "\nCustomers\t%s\n", p.Count(len(d.RFM)))
	if n := len(d.RFM); n > 0 {
		var recency, frequency, monetary float64
		for _, row := range d.RFM {
			recency += float64(row.Recency)
			frequency += float64(row.Frequency)
			monetary += row.Monetary
		}
		fmt.Fprintf(tw, "Mean recency (days)\t%.1f\n", recency/float64(n))
		fmt.Fprintf(tw, "Mean frequency\t%.2f\n", frequency/float64(n))
		fmt.Fprintf(tw, "Mean monetary\t%s\n", p.Currency(monetary/float64(n)))
	}

	return tw.Flush()
}
