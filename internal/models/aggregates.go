package models

import (
	"encoding/json"
	"time"
)

// DailyMetrics is one calendar day of activity. Days without orders are
// present with zero values.
type DailyMetrics struct {
	Date       time.Time `json:"-"`
	OrderCount int       `json:"order_count"`
	Revenue    float64   `json:"revenue"`
}

func (d DailyMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date       string  `json:"order_purchase_timestamp"`
		OrderCount int     `json:"order_count"`
		Revenue    float64 `json:"revenue"`
	}{FormatDay(d.Date), d.OrderCount, d.Revenue})
}

type CategoryQuantity struct {
	ProductCategoryName string `json:"product_category_name"`
	Quantity            int    `json:"quantity"`
}

type PaymentCount struct {
	PaymentType  string `json:"payment_type"`
	PaymentCount int    `json:"payment_count"`
}

// CustomerRFM holds recency, frequency and monetary values of one customer.
// Recency is counted in whole days back from the latest purchase of the
// table the row was computed from.
type CustomerRFM struct {
	CustomerID   string    `json:"customer_id"`
	LastPurchase time.Time `json:"last_purchase"`
	Frequency    int       `json:"frequency"`
	Monetary     float64   `json:"monetary"`
	Recency      int       `json:"recency"`
}

type Dashboard struct {
	Range        DateRange          `json:"range"`
	TotalOrders  int                `json:"total_orders"`
	TotalRevenue float64            `json:"total_revenue"`
	Daily        []DailyMetrics     `json:"daily_orders"`
	Categories   []CategoryQuantity `json:"sum_order_items"`
	Payments     []PaymentCount     `json:"payment_distribution"`
	RFM          []CustomerRFM      `json:"rfm"`
}
