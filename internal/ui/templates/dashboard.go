package templates

import (
	"context"
	"fmt"
	"io"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/views"
	"github.com/a-h/templ"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
)

const pageStyle = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6fa;color:#222}
header{padding:1.5rem 2rem;background:#1f2a44;color:#fff}
main{display:grid;grid-template-columns:260px 1fr;gap:1.5rem;padding:1.5rem 2rem}
aside label{display:block;margin:.75rem 0 .25rem;font-weight:600}
.cards{display:grid;grid-template-columns:1fr 1fr;gap:1rem}
.card{background:#fff;border-radius:8px;padding:1rem 1.25rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.card .value{font-size:1.8rem;font-weight:700}
.panel{background:#fff;border-radius:8px;padding:1rem;margin-top:1.5rem}
.rfm{display:grid;grid-template-columns:repeat(3,1fr);gap:1rem}
.modern-table{width:100%;border-collapse:collapse}
.modern-table td,.modern-table th{padding:.4rem .6rem;border-bottom:1px solid #eee;text-align:left}
`

// renderCharts is called by datastar whenever the charts signal changes.
const chartScriptBody = `
const charts = {};
function draw(id, type, labels, data, label, opts) {
  if (charts[id]) { charts[id].destroy(); }
  charts[id] = new Chart(document.getElementById(id), {
    type: type,
    data: {labels: labels, datasets: [{label: label, data: data}]},
    options: Object.assign({responsive: true, plugins: {legend: {display: false}}}, opts || {})
  });
}
function binLabels(bins) { return bins.map(b => b.lower.toFixed(0) + "-" + b.upper.toFixed(0)); }
function renderCharts(c) {
  if (!c || !c.daily) { return; }
  const days = c.daily.map(d => d.order_purchase_timestamp);
  draw("orders-chart", "line", days, c.daily.map(d => d.order_count), "Total Orders");
  draw("revenue-chart", "line", days, c.daily.map(d => d.revenue), "Revenue");
  draw("categories-chart", "bar", c.categories.map(r => r.product_category_name), c.categories.map(r => r.quantity), "Quantity", {indexAxis: "y"});
  draw("payments-chart", "bar", c.payments.map(r => r.payment_type), c.payments.map(r => r.payment_count), "Payment Count");
  draw("recency-chart", "bar", binLabels(c.recency), c.recency.map(b => b.count), "Customers");
  draw("frequency-chart", "bar", binLabels(c.frequency), c.frequency.map(b => b.count), "Customers");
  draw("monetary-chart", "bar", binLabels(c.monetary), c.monetary.map(b => b.count), "Customers");
}
`

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

// Dashboard renders the full page. The date inputs are limited to bounds and
// start out covering all of it.
func Dashboard(bounds models.DateRange, cfg config.DashboardConfig) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		start := models.FormatDay(bounds.Start)
		end := models.FormatDay(bounds.End)
		signals := fmt.Sprintf("{startDate: '%s', endDate: '%s', charts: {}}", start, end)

		if err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>E-Commerce Dashboard</title>`,
			`<style>`, pageStyle, `</style>`,
			`<script type="module" src="`, datastarScript, `"></script>`,
			`<script src="`, chartScript, `"></script>`,
			`<script>`, chartScriptBody, `</script>`,
			`</head>`,
			`<body data-signals="`, templ.EscapeString(signals), `" data-on-load="@get('/sse/dashboard')" data-effect="renderCharts($charts)">`,
			`<header><h1>E-Commerce Dashboard</h1><p>Orders, revenue and customer behaviour for the selected period</p></header>`,
			`<main><aside><h2>Date Range</h2>`,
			`<label for="start-date">From</label>`,
			`<input id="start-date" type="date" min="`, start, `" max="`, end, `" data-bind-start-date data-on-change="@get('/sse/dashboard')">`,
			`<label for="end-date">To</label>`,
			`<input id="end-date" type="date" min="`, start, `" max="`, end, `" data-bind-end-date data-on-change="@get('/sse/dashboard')">`,
			`</aside><section>`,
		); err != nil {
			return err
		}

		if err := Metrics(views.Metrics{Range: bounds.String(), TotalOrders: "0", TotalRevenue: "-"}).Render(ctx, w); err != nil {
			return err
		}

		return write(w,
			`<div class="panel"><h2>Daily Orders</h2><canvas id="orders-chart"></canvas></div>`,
			`<div class="panel"><h2>Top `, fmt.Sprint(cfg.TopCategories), ` Product Categories</h2><canvas id="categories-chart"></canvas>`,
			`<div id="categories-table"></div></div>`,
			`<div class="panel"><h2>Payment Method Distribution</h2><canvas id="payments-chart"></canvas></div>`,
			`<div class="panel"><h2>Daily Revenue</h2><canvas id="revenue-chart"></canvas></div>`,
			`<div class="panel"><h2>RFM Distribution</h2><div class="rfm">`,
			`<div><h3>Recency (days)</h3><canvas id="recency-chart"></canvas></div>`,
			`<div><h3>Purchase Frequency</h3><canvas id="frequency-chart"></canvas></div>`,
			`<div><h3>Total Money Spent (0-`, fmt.Sprint(cfg.MonetaryClip), `)</h3><canvas id="monetary-chart"></canvas></div>`,
			`</div></div></section></main></body></html>`,
		)
	})
}

// Metrics renders the headline cards. It is patched in place on every range
// change.
func Metrics(m views.Metrics) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<div id="metrics" class="cards">`,
			`<div class="card"><div>Total Orders</div><div class="value">`, templ.EscapeString(m.TotalOrders), `</div></div>`,
			`<div class="card"><div>Total Revenue</div><div class="value">`, templ.EscapeString(m.TotalRevenue), `</div></div>`,
			`<small>`, templ.EscapeString(m.Range), `</small>`,
			`</div>`,
		)
	})
}

// CategoryTable lists the ranking rows next to the categories chart.
func CategoryTable(rows []models.CategoryQuantity) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<div id="categories-table"><table class="modern-table">`,
			`<thead><tr><th>Product Category</th><th>Quantity</th></tr></thead><tbody>`,
		); err != nil {
			return err
		}
		for _, row := range rows {
			if err := write(w,
				`<tr><td>`, templ.EscapeString(row.ProductCategoryName), `</td><td>`, fmt.Sprint(row.Quantity), `</td></tr>`,
			); err != nil {
				return err
			}
		}
		return write(w, `</tbody></table></div>`)
	})
}
