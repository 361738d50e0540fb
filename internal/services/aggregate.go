package services

import (
	"cmp"
	"slices"
	"time"

	"ecommerce-dashboard/internal/models"
)

// The aggregators below never modify their input and always return a
// non-nil slice, so several of them may share one filtered table.

// FilterByDateRange keeps the transactions purchased inside r. An inverted
// range matches nothing.
func FilterByDateRange(txs []models.Transaction, r models.DateRange) []models.Transaction {
	result := make([]models.Transaction, 0)
	if !r.Valid() {
		return result
	}
	for _, tx := range txs {
		if r.Contains(tx.PurchasedAt) {
			result = append(result, tx)
		}
	}
	return result
}

type dayBucket struct {
	orders  map[string]struct{}
	revenue float64
}

// DailyMetrics returns one row per calendar day between the first and the
// last purchase, including days without any orders.
func DailyMetrics(txs []models.Transaction) []models.DailyMetrics {
	if len(txs) == 0 {
		return []models.DailyMetrics{}
	}

	buckets := make(map[time.Time]*dayBucket)
	first, last := models.Day(txs[0].PurchasedAt), models.Day(txs[0].PurchasedAt)
	for _, tx := range txs {
		day := models.Day(tx.PurchasedAt)
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}

		b := buckets[day]
		if b == nil {
			b = &dayBucket{orders: make(map[string]struct{})}
			buckets[day] = b
		}
		b.orders[tx.OrderID] = struct{}{}
		b.revenue += tx.Price
	}

	result := make([]models.DailyMetrics, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		row := models.DailyMetrics{Date: day}
		if b, ok := buckets[day]; ok {
			row.OrderCount = len(b.orders)
			row.Revenue = b.revenue
		}
		result = append(result, row)
	}
	return result
}

// CategoryRanking counts line items per product category, most sold first.
// Equal counts are ordered by category name. Items without a category are
// counted under the empty name.
func CategoryRanking(txs []models.Transaction) []models.CategoryQuantity {
	counts := make(map[string]int)
	for _, tx := range txs {
		counts[tx.Category]++
	}

	result := make([]models.CategoryQuantity, 0, len(counts))
	for name, n := range counts {
		result = append(result, models.CategoryQuantity{ProductCategoryName: name, Quantity: n})
	}
	slices.SortFunc(result, func(a, b models.CategoryQuantity) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductCategoryName, b.ProductCategoryName)
	})
	return result
}

// PaymentDistribution counts line items per payment type.
func PaymentDistribution(txs []models.Transaction) []models.PaymentCount {
	counts := make(map[string]int)
	for _, tx := range txs {
		counts[tx.PaymentType]++
	}

	result := make([]models.PaymentCount, 0, len(counts))
	for name, n := range counts {
		result = append(result, models.PaymentCount{PaymentType: name, PaymentCount: n})
	}
	// Callers must not rely on the order; it is fixed only to keep output stable.
	slices.SortFunc(result, func(a, b models.PaymentCount) int {
		if c := cmp.Compare(b.PaymentCount, a.PaymentCount); c != 0 {
			return c
		}
		return cmp.Compare(a.PaymentType, b.PaymentType)
	})
	return result
}

type customerBucket struct {
	last     time.Time
	orders   map[string]struct{}
	monetary float64
}

// RFM computes one row per customer. Recency is measured against the latest
// purchase in txs, not the current time.
func RFM(txs []models.Transaction) []models.CustomerRFM {
	if len(txs) == 0 {
		return []models.CustomerRFM{}
	}

	reference := txs[0].PurchasedAt
	customers := make(map[string]*customerBucket)
	for _, tx := range txs {
		if tx.PurchasedAt.After(reference) {
			reference = tx.PurchasedAt
		}

		c := customers[tx.CustomerID]
		if c == nil {
			c = &customerBucket{last: tx.PurchasedAt, orders: make(map[string]struct{})}
			customers[tx.CustomerID] = c
		}
		if tx.PurchasedAt.After(c.last) {
			c.last = tx.PurchasedAt
		}
		c.orders[tx.OrderID] = struct{}{}
		c.monetary += tx.PaymentValue
	}

	result := make([]models.CustomerRFM, 0, len(customers))
	for id, c := range customers {
		result = append(result, models.CustomerRFM{
			CustomerID:   id,
			LastPurchase: c.last,
			Frequency:    len(c.orders),
			Monetary:     c.monetary,
			Recency:      int(reference.Sub(c.last) / (24 * time.Hour)),
		})
	}
	slices.SortFunc(result, func(a, b models.CustomerRFM) int {
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	return result
}
