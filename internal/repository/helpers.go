package repository

import (
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
