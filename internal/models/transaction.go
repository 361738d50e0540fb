package models

import "time"

// Transaction is one line item of the pre-joined orders dataset. An order
// spans as many line items as it has items and payments.
type Transaction struct {
	OrderID      string
	CustomerID   string
	PurchasedAt  time.Time
	Category     string // empty when the product has no category
	Price        float64
	PaymentType  string
	PaymentValue float64
}

const dayLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// ParseDateRange parses two YYYY-MM-DD strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(dayLayout, start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := time.Parse(dayLayout, end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e), nil
}

func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// Contains reports whether t falls between the start of the first day and
// the end of the last day.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Valid() {
		return false
	}
	from := Day(r.Start)
	until := Day(r.End).AddDate(0, 0, 1)
	return !t.Before(from) && t.Before(until)
}

func (r DateRange) String() string {
	return r.Start.Format(dayLayout) + ".." + r.End.Format(dayLayout)
}

func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return []byte(`{"start":"` + FormatDay(r.Start) + `","end":"` + FormatDay(r.End) + `"}`), nil
}
