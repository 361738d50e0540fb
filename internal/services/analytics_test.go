package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecommerce-dashboard/internal/models"
)

const validCSV = `order_id,customer_id,order_status,order_purchase_timestamp,product_id,price,product_category_name,payment_type,payment_value
A,X,delivered,2023-01-01 10:15:00,P1,10,toys,credit_card,10
A,X,delivered,2023-01-01 10:15:00,P2,5,toys,credit_card,5
B,Y,delivered,2023-01-03 08:00:00,P3,20,books,boleto,20
C,Z,delivered,2023-01-03 21:30:00,P4,,,voucher,
`

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "test*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.data == nil {
		t.Error("data should be initialized")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
	if a.cacheDir != "" {
		t.Error("cache should be disabled by default")
	}
}

func TestAnalytics_SetData(t *testing.T) {
	a := NewAnalytics()
	a.SetData(scenario())

	bounds := a.Bounds()
	if !bounds.Start.Equal(day(2023, 1, 1)) || !bounds.End.Equal(day(2023, 1, 3)) {
		t.Errorf("Bounds() = %s, want 2023-01-01..2023-01-03", bounds)
	}

	stats := a.Stats()
	if stats["record_count"] != 3 {
		t.Errorf("record_count = %v, want 3", stats["record_count"])
	}
	if stats["orders"] != 2 {
		t.Errorf("orders = %v, want 2", stats["orders"])
	}
	if stats["customers"] != 2 {
		t.Errorf("customers = %v, want 2", stats["customers"])
	}
}

func TestAnalytics_Dashboard(t *testing.T) {
	a := NewAnalytics()
	a.SetData(scenario())

	d, err := a.Dashboard(context.Background(), models.NewDateRange(day(2023, 1, 1), day(2023, 1, 3)))
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if d.TotalOrders != 2 {
		t.Errorf("TotalOrders = %d, want 2", d.TotalOrders)
	}
	if d.TotalRevenue != 35 {
		t.Errorf("TotalRevenue = %v, want 35", d.TotalRevenue)
	}
	if len(d.Daily) != 3 {
		t.Errorf("len(Daily) = %d, want 3", len(d.Daily))
	}
	if len(d.Categories) != 2 || d.Categories[0].ProductCategoryName != "toys" {
		t.Errorf("Categories = %+v, want toys first", d.Categories)
	}
	if len(d.Payments) != 2 {
		t.Errorf("len(Payments) = %d, want 2", len(d.Payments))
	}
	if len(d.RFM) != 2 {
		t.Errorf("len(RFM) = %d, want 2", len(d.RFM))
	}
}

func TestAnalytics_DashboardEmptyRanges(t *testing.T) {
	a := NewAnalytics()
	a.SetData(scenario())

	ranges := map[string]models.DateRange{
		"inverted":     models.NewDateRange(day(2023, 1, 3), day(2023, 1, 1)),
		"before data":  models.NewDateRange(day(2020, 1, 1), day(2020, 12, 31)),
		"after data":   models.NewDateRange(day(2024, 1, 1), day(2024, 1, 1)),
		"gap day only": models.NewDateRange(day(2023, 1, 2), day(2023, 1, 2)),
	}

	for name, r := range ranges {
		t.Run(name, func(t *testing.T) {
			d, err := a.Dashboard(context.Background(), r)
			if err != nil {
				t.Fatalf("Dashboard() error = %v", err)
			}
			if d.TotalOrders != 0 || d.TotalRevenue != 0 {
				t.Errorf("totals = %d/%v, want zero", d.TotalOrders, d.TotalRevenue)
			}
			if d.Daily == nil || d.Categories == nil || d.Payments == nil || d.RFM == nil {
				t.Error("tables should be empty, not nil")
			}
			if len(d.Daily)+len(d.Categories)+len(d.Payments)+len(d.RFM) != 0 {
				t.Error("tables should be empty")
			}
		})
	}
}

func TestAnalytics_DashboardCanceled(t *testing.T) {
	a := NewAnalytics()
	a.SetData(scenario())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Dashboard(ctx, a.Bounds())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Dashboard() error = %v, want context.Canceled", err)
	}
}

func TestAnalytics_LoadFromCSV_ValidData(t *testing.T) {
	f := createTempCSV(t, validCSV)

	a := NewAnalytics()
	if err := a.LoadFromCSV(context.Background(), f); err != nil {
		t.Fatalf("LoadFromCSV() with valid data should not error, got: %v", err)
	}

	if got := a.Stats()["record_count"]; got != 4 {
		t.Errorf("record_count = %v, want 4", got)
	}

	d, err := a.Dashboard(context.Background(), a.Bounds())
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalOrders != 3 {
		t.Errorf("TotalOrders = %d, want 3", d.TotalOrders)
	}
	if d.TotalRevenue != 35 {
		t.Errorf("TotalRevenue = %v, want 35 (empty price counts as zero)", d.TotalRevenue)
	}

	var unknown int
	for _, row := range d.Categories {
		if row.ProductCategoryName == "" {
			unknown = row.Quantity
		}
	}
	if unknown != 1 {
		t.Errorf("empty category group = %d, want 1", unknown)
	}
}

func TestAnalytics_LoadFromCSV_InvalidData(t *testing.T) {
	header := "order_id,customer_id,order_purchase_timestamp,price,product_category_name,payment_type,payment_value\n"

	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "empty file",
			csv:     "",
			wantErr: "empty file",
		},
		{
			name:    "header only",
			csv:     header,
			wantErr: "no records",
		},
		{
			name:    "missing column",
			csv:     "order_id,customer_id,order_purchase_timestamp,price\nA,X,2023-01-01,1\n",
			wantErr: "missing column",
		},
		{
			name:    "invalid timestamp",
			csv:     header + "A,X,01/02/2023,10,toys,boleto,10\n",
			wantErr: "line 2",
		},
		{
			name:    "invalid price",
			csv:     header + "A,X,2023-01-01 10:00:00,ten,toys,boleto,10\n",
			wantErr: "price",
		},
		{
			name:    "invalid payment value",
			csv:     header + "A,X,2023-01-01 10:00:00,10,toys,boleto,n/a\n",
			wantErr: "payment_value",
		},
		{
			name:    "wrong field count",
			csv:     header + "A,X,2023-01-01 10:00:00,10\n",
			wantErr: "read record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTempCSV(t, tt.csv)

			a := NewAnalytics()
			err := a.LoadFromCSV(context.Background(), f)
			if err == nil {
				t.Fatal("LoadFromCSV() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromCSV() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAnalytics_LoadFromCSV_MissingFile(t *testing.T) {
	a := NewAnalytics()
	err := a.LoadFromCSV(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFromCSV() error = %v, want os.ErrNotExist", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, value := range []string{
		"2023-01-02 03:04:05",
		"2023-01-02T03:04:05",
		"2023-01-02T03:04:05Z",
		"2023-01-02T05:04:05+02:00",
	} {
		got, err := parseTimestamp(value)
		if err != nil {
			t.Errorf("parseTimestamp(%q) error = %v", value, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", value, got, want)
		}
	}

	if got, err := parseTimestamp("2023-01-02"); err != nil || !got.Equal(day(2023, 1, 2)) {
		t.Errorf("parseTimestamp(date only) = %v, %v", got, err)
	}
}

func TestParseBatchKeepsOrder(t *testing.T) {
	header := []string{"order_id", "customer_id", "order_purchase_timestamp", "price", "product_category_name", "payment_type", "payment_value"}
	cols, err := newColumnIndex(header)
	if err != nil {
		t.Fatal(err)
	}

	batch := make([]rawRecord, 95)
	for i := range batch {
		batch[i] = rawRecord{line: i + 2, fields: []string{
			string(rune('a'+i%26)) + strings.Repeat("x", i/26), "c", "2023-01-01", "1", "", "boleto", "1",
		}}
	}

	out, err := parseBatch(context.Background(), batch, cols)
	if err != nil {
		t.Fatal(err)
	}
	for i, tx := range out {
		if tx.OrderID != batch[i].fields[0] {
			t.Fatalf("row %d: OrderID = %q, want %q", i, tx.OrderID, batch[i].fields[0])
		}
	}
}

func TestAnalytics_Cache(t *testing.T) {
	cacheDir := t.TempDir()
	f := createTempCSV(t, validCSV)

	first := NewAnalytics(WithCacheDir(cacheDir))
	if err := first.LoadFromCSV(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(first.getCacheFilename(f)); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	// Make the CSV unreadable as data so that only the cache can satisfy the load.
	past := time.Now().Add(-time.Hour)
	if err := os.WriteFile(f, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(f, past, past); err != nil {
		t.Fatal(err)
	}

	second := NewAnalytics(WithCacheDir(cacheDir))
	if err := second.LoadFromCSV(context.Background(), f); err != nil {
		t.Fatalf("LoadFromCSV() should use the cache, got: %v", err)
	}
	if got := second.Stats()["record_count"]; got != 4 {
		t.Errorf("record_count = %v, want 4", got)
	}

	// A CSV newer than the snapshot is parsed again.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(f, future, future); err != nil {
		t.Fatal(err)
	}
	third := NewAnalytics(WithCacheDir(cacheDir))
	if err := third.LoadFromCSV(context.Background(), f); err == nil {
		t.Error("LoadFromCSV() should re-read a modified CSV")
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics()
	a.SetData(mixed())
	r := a.Bounds()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := a.Dashboard(context.Background(), r)
			_ = a.Stats()
			done <- err
		}()
	}

	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("Dashboard() error = %v", err)
		}
	}
}

func BenchmarkAnalytics_Dashboard(b *testing.B) {
	a := NewAnalytics()
	data := make([]models.Transaction, 0, 10000)
	for i := 0; i < 10000; i++ {
		data = append(data, models.Transaction{
			OrderID:      "O" + string(rune('a'+i%500)),
			CustomerID:   "C" + string(rune('a'+i%300)),
			PurchasedAt:  day(2023, 1, 1).Add(time.Duration(i) * time.Hour),
			Category:     "cat" + string(rune('a'+i%40)),
			Price:        float64(i % 100),
			PaymentType:  "credit_card",
			PaymentValue: float64(i % 100),
		})
	}
	a.SetData(data)
	r := a.Bounds()

	b.ResetTimer()
	for b.Loop() {
		if _, err := a.Dashboard(context.Background(), r); err != nil {
			b.Fatal(err)
		}
	}
}
