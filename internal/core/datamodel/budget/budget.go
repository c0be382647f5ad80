package budget

// Alert status tiers. The four-value enum is part of the engine contract;
// color and label mapping stays in the view layer.
const (
	StatusNormal   = "normal"
	StatusWarning  = "warning"
	StatusCritical = "critical"
	StatusSuccess  = "success"
)

// DefaultThreshold is the warning trigger used when a budget does not set
// its own fraction.
const DefaultThreshold = 0.8

// Budget is a spending limit or savings goal for a category. Month and Year
// are nil for recurring/global budgets. Budgets are never edited in place;
// the backend deletes and recreates them by ID.
type Budget struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Threshold float64 `json:"threshold"`
	Month     *int    `json:"month,omitempty"`
	Year      *int    `json:"year,omitempty"`
}

// Alert is the derived budget-compliance status for one budget and one
// period. It is recomputed on every query and never persisted.
type Alert struct {
	Category   string  `json:"category"`
	Limit      float64 `json:"limit"`
	Spent      float64 `json:"spent"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
	Msg        string  `json:"msg"`
	Type       string  `json:"type"`
}
