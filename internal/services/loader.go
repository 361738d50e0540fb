package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"ecommerce-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var requiredColumns = []string{
	"order_id",
	"customer_id",
	"order_purchase_timestamp",
	"price",
	"product_category_name",
	"payment_type",
	"payment_value",
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// columnIndex maps each required column to its position in the header.
type columnIndex map[string]int

func newColumnIndex(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return idx, nil
}

type rawRecord struct {
	line   int
	fields []string
}

func readTransactions(ctx context.Context, filename string) ([]models.Transaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return parseTransactions(ctx, file)
}

func parseTransactions(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var result []models.Transaction
	batch := make([]rawRecord, 0, batchSize)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := reader.FieldPos(0)
		batch = append(batch, rawRecord{line: line, fields: fields})

		if len(batch) >= batchSize {
			parsed, err := parseBatch(ctx, batch, cols)
			if err != nil {
				return nil, err
			}
			result = append(result, parsed...)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		parsed, err := parseBatch(ctx, batch, cols)
		if err != nil {
			return nil, err
		}
		result = append(result, parsed...)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no records found")
	}
	return result, nil
}

// parseBatch converts a batch of records in parallel, keeping their order.
func parseBatch(ctx context.Context, batch []rawRecord, cols columnIndex) ([]models.Transaction, error) {
	out := make([]models.Transaction, len(batch))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	chunk := (len(batch) + maxWorkers - 1) / maxWorkers
	for from := 0; from < len(batch); from += chunk {
		to := min(from+chunk, len(batch))
		g.Go(func() error {
			for i := from; i < to; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				tx, err := parseTransaction(batch[i].fields, cols)
				if err != nil {
					return fmt.Errorf("line %d: %w", batch[i].line, err)
				}
				out[i] = tx
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseTransaction(record []string, cols columnIndex) (models.Transaction, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[cols[name]])
	}

	purchasedAt, err := parseTimestamp(field("order_purchase_timestamp"))
	if err != nil {
		return models.Transaction{}, err
	}

	price, err := parseAmount(field("price"))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("price: %w", err)
	}

	paymentValue, err := parseAmount(field("payment_value"))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("payment_value: %w", err)
	}

	return models.Transaction{
		OrderID:      field("order_id"),
		CustomerID:   field("customer_id"),
		PurchasedAt:  purchasedAt,
		Category:     field("product_category_name"),
		Price:        price,
		PaymentType:  field("payment_type"),
		PaymentValue: paymentValue,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid order_purchase_timestamp %q", value)
}

// parseAmount treats a missing value as zero so it adds nothing to sums.
func parseAmount(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}
