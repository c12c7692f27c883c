package domain

type PayoffRequest struct {
	Strategy              Strategy `json:"strategy" validate:"required,oneof=snowball avalanche"`
	StartDate             string   `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	CurrentMonthlyPayment float64  `json:"currentMonthlyPayment" validate:"gte=0"`
	ExtraSnowball         float64  `json:"extraSnowball" validate:"gte=0"`
}

type CompareRequest struct {
	StartDate             string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	CurrentMonthlyPayment float64 `json:"currentMonthlyPayment" validate:"gte=0"`
	ExtraSnowball         float64 `json:"extraSnowball" validate:"gte=0"`
}

// ExtraPaymentsRequest maps 1-based month numbers to a one-off extra amount.
type ExtraPaymentsRequest struct {
	Overrides map[int]float64 `json:"overrides" validate:"dive,gte=0"`
}
