package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotLine is a cart line resolved against the live product row at the
// moment the snapshot was taken.
type SnapshotLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartSnapshot represents the full cart state read once and passed through
// checkout. Prices here are live prices; they only become binding when the
// checkout transaction re-reads them under lock.
type CartSnapshot struct {
	UserID     int64           `json:"user_id"`
	Lines      []SnapshotLine  `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	CapturedAt time.Time       `json:"captured_at"`
}

func (s *CartSnapshot) Empty() bool {
	return s == nil || len(s.Lines) == 0
}

// ComputeTotal sums quantity × unit price over all lines.
func (s *CartSnapshot) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
