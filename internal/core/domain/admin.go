package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	Category struct {
		ID          int64
		Name        string
		Description string
	}

	AdminProduct struct {
		ID           int64
		CategoryID   int64
		CategoryName string
		Name         string
		Description  string
		Price        decimal.Decimal
		Stock        int
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}
)
