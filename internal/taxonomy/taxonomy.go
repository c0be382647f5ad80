package taxonomy

import (
	"fmt"
	"strings"

	errors "github.com/AbrarAhmad001/antigravity-budget/internal"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
)

// Category set names as they appear on the wire.
const (
	SetExpense = "expense"
	SetIncome  = "income"
	SetSavings = "savings"
	SetVaults  = "vaults"
)

// SetNames lists the four sets in display order.
var SetNames = []string{SetExpense, SetIncome, SetSavings, SetVaults}

// Catalog holds the four category sets. Each set is order-preserving for
// display; a value is unique within its set but may appear in several sets
// (a savings goal name doubling as an expense category means "spend from
// that fund").
type Catalog struct {
	Expense []string `json:"expense"`
	Income  []string `json:"income"`
	Savings []string `json:"savings"`
	Vaults  []string `json:"vaults"`
}

// Set returns the named set, or nil for an unknown name.
func (c Catalog) Set(name string) []string {
	switch name {
	case SetExpense:
		return c.Expense
	case SetIncome:
		return c.Income
	case SetSavings:
		return c.Savings
	case SetVaults:
		return c.Vaults
	}
	return nil
}

// Clone returns a deep copy so callers can stage edits without touching the
// session's catalog slice.
func (c Catalog) Clone() Catalog {
	clone := func(s []string) []string {
		if s == nil {
			return nil
		}
		out := make([]string, len(s))
		copy(out, s)
		return out
	}
	return Catalog{
		Expense: clone(c.Expense),
		Income:  clone(c.Income),
		Savings: clone(c.Savings),
		Vaults:  clone(c.Vaults),
	}
}

// OptionsFor returns the candidate categories to offer for a transaction of
// the given type. Expense options are the expense set followed by the
// savings set, since spending from a savings vault is recorded as an expense
// against the fund's name; duplicates are kept. If current is non-empty and
// not already present it is appended last, so a transaction carrying a
// free-form or legacy category is never rendered without a selectable value.
func (c Catalog) OptionsFor(transactionType, current string) []string {
	var options []string

	switch transactionType {
	case transaction.TypeIncome:
		options = append(options, c.Income...)
	case transaction.TypeSavings:
		options = append(options, c.Savings...)
	default:
		options = append(options, c.Expense...)
		options = append(options, c.Savings...)
	}

	if current != "" && !contains(options, current) {
		options = append(options, current)
	}

	return options
}

// Add inserts a trimmed value into the named set. Adding a value that is
// already present is a no-op, not an error.
func (c *Catalog) Add(set, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.NewValidationError("category value must not be empty", errors.ErrCodeEmptyCategory)
	}

	target, err := c.set(set)
	if err != nil {
		return err
	}

	if contains(*target, value) {
		return nil
	}
	*target = append(*target, value)
	return nil
}

// Remove drops a value from the named set. Removing an absent value is a
// no-op.
func (c *Catalog) Remove(set, value string) error {
	target, err := c.set(set)
	if err != nil {
		return err
	}

	out := (*target)[:0]
	for _, v := range *target {
		if v != value {
			out = append(out, v)
		}
	}
	*target = out
	return nil
}

func (c *Catalog) set(name string) (*[]string, error) {
	switch name {
	case SetExpense:
		return &c.Expense, nil
	case SetIncome:
		return &c.Income, nil
	case SetSavings:
		return &c.Savings, nil
	case SetVaults:
		return &c.Vaults, nil
	}
	return nil, errors.NewValidationError(fmt.Sprintf("unknown category set: %s", name), errors.ErrCodeUnknownSet)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
