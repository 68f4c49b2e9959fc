package products

import "time"

// Product kinds. Loan products charge interest to the customer; investment
// products accrue interest for the customer.
const (
	KindLoan       = "loan"
	KindInvestment = "investment"
)

type Product struct {
	ID           int64     `json:"id"`
	Kind         string    `json:"kind"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	InterestRate float64   `json:"interest_rate"`
	MinAmount    int64     `json:"min_amount"`
	MaxAmount    int64     `json:"max_amount"`
	TenorMonths  int       `json:"tenor_months"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// AmountRange is a display string derived from MinAmount/MaxAmount,
	// never stored.
	AmountRange string `json:"amount_range,omitempty"`
}

type Input struct {
	Kind         string  `json:"kind" validate:"required,oneof=loan investment"`
	Code         string  `json:"code" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	MinAmount    int64   `json:"min_amount" validate:"gte=0"`
	MaxAmount    int64   `json:"max_amount" validate:"gtefield=MinAmount"`
	TenorMonths  int     `json:"tenor_months" validate:"gte=0"`
	IsActive     bool    `json:"is_active"`
}
