package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbook/pocketbook/internal/transaction"
)

// Bucket is one chart-ready time slot with its income and expense sums in
// minor currency units.
type Bucket struct {
	Label   string `json:"label"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

// Result pairs the oldest-first buckets with the raw matched transactions,
// newest first, for the detail list under the chart.
type Result struct {
	Buckets      []Bucket
	Transactions []transaction.Transaction
}

// Service aggregates an owner's transactions into fixed time buckets.
// Transactions dated outside every bucket boundary are excluded from the
// chart but still appear in unrelated queries.
type Service struct {
	transactions *transaction.Repository
	now          func() time.Time
}

// NewService builds a stats service instance.
func NewService(transactions *transaction.Repository) *Service {
	return &Service{transactions: transactions, now: time.Now}
}

// Weekly buckets the trailing seven calendar days, today included.
func (s *Service) Weekly(ctx context.Context, ownerID string) (Result, error) {
	today := startOfDay(s.now().UTC())
	start := today.AddDate(0, 0, -6)
	end := today.AddDate(0, 0, 1).Add(-time.Nanosecond)

	matched, err := s.transactions.ListByOwnerInRange(ctx, ownerID, start, end)
	if err != nil {
		return Result{}, err
	}

	buckets := make([]Bucket, 7)
	for i := range buckets {
		buckets[i].Label = start.AddDate(0, 0, i).Format("Mon")
	}
	for _, t := range matched {
		idx := int(startOfDay(t.Date.UTC()).Sub(start) / (24 * time.Hour))
		accumulate(buckets, idx, t)
	}
	return Result{Buckets: buckets, Transactions: matched}, nil
}

// Monthly buckets the trailing twelve calendar months, keyed month plus
// two-digit year.
func (s *Service) Monthly(ctx context.Context, ownerID string) (Result, error) {
	now := s.now().UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := currentMonth.AddDate(0, -11, 0)
	end := currentMonth.AddDate(0, 1, 0).Add(-time.Nanosecond)

	matched, err := s.transactions.ListByOwnerInRange(ctx, ownerID, start, end)
	if err != nil {
		return Result{}, err
	}

	buckets := make([]Bucket, 12)
	for i := range buckets {
		buckets[i].Label = start.AddDate(0, i, 0).Format("Jan 06")
	}
	for _, t := range matched {
		d := t.Date.UTC()
		idx := (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
		accumulate(buckets, idx, t)
	}
	return Result{Buckets: buckets, Transactions: matched}, nil
}

// Yearly buckets every calendar year from the owner's earliest transaction
// through the current year. With no transactions it returns empty buckets
// and an empty list.
func (s *Service) Yearly(ctx context.Context, ownerID string) (Result, error) {
	matched, err := s.transactions.ListByOwner(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	if len(matched) == 0 {
		return Result{Buckets: []Bucket{}, Transactions: matched}, nil
	}

	// Newest first, so the earliest transaction is last.
	firstYear := matched[len(matched)-1].Date.UTC().Year()
	currentYear := s.now().UTC().Year()
	if firstYear > currentYear {
		firstYear = currentYear
	}

	buckets := make([]Bucket, currentYear-firstYear+1)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%d", firstYear+i)
	}
	for _, t := range matched {
		accumulate(buckets, t.Date.UTC().Year()-firstYear, t)
	}
	return Result{Buckets: buckets, Transactions: matched}, nil
}

func accumulate(buckets []Bucket, idx int, t transaction.Transaction) {
	if idx < 0 || idx >= len(buckets) {
		return
	}
	switch t.Kind {
	case transaction.KindIncome:
		buckets[idx].Income += t.Amount
	case transaction.KindExpense:
		buckets[idx].Expense += t.Amount
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
