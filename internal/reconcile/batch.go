package reconcile

import (
	"fmt"
	"time"

	errors "github.com/AbrarAhmad001/antigravity-budget/internal"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/common/validation"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
)

// Batch is a draft reconciliation batch. Entries are addressed by position:
// the UI renders them in extraction order and edits/deletes reference the
// row index. All mutations touch exactly one entry.
type Batch []transaction.Transaction

// NewBatch normalizes an extraction payload into a draft batch.
func NewBatch(raws []transaction.Raw) Batch {
	return Batch(NormalizeAll(raws))
}

// dateLayouts are the formats the ledger has historically contained.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006"}

// ParseDate parses a transaction date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
}

// SetField applies one field-level edit to the entry at index i and runs the
// result back through the normalizer, so an edit can never leave a draft in
// a non-canonical state. Legacy field aliases are accepted and resolved here
// like everywhere else at the normalization boundary.
func (b Batch) SetField(i int, field string, value any) error {
	if i < 0 || i >= len(b) {
		return errors.NewValidationError(fmt.Sprintf("no transaction at position %d", i), errors.ErrCodeBatchIndex)
	}

	raw := b[i].Raw()

	switch field {
	case "date":
		raw.Date = asString(value)
	case "time":
		raw.Time = asString(value)
	case "amount":
		raw.Amount = value
	case "category":
		raw.Category = asString(value)
	case "transaction_type", "type":
		raw.TransactionType = asString(value)
		raw.Type = ""
	case "detail_source_item":
		raw.DetailSourceItem = asString(value)
	case "description":
		raw.Description = asString(value)
	case "vault_location":
		raw.VaultLocation = asString(value)
	case "attachments":
		raw.Attachments = asString(value)
	case "secondary_date":
		raw.SecondaryDate = asString(value)
	case "secondary_time":
		raw.SecondaryTime = asString(value)
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown transaction field: %s", field), errors.ErrCodeUnknownField)
	}

	b[i] = Normalize(raw)
	return nil
}

// Delete removes exactly the entry at index i. Later entries shift down one
// position; their values are untouched.
func (b Batch) Delete(i int) (Batch, error) {
	if i < 0 || i >= len(b) {
		return b, errors.NewValidationError(fmt.Sprintf("no transaction at position %d", i), errors.ErrCodeBatchIndex)
	}

	out := make(Batch, 0, len(b)-1)
	out = append(out, b[:i]...)
	out = append(out, b[i+1:]...)
	return out, nil
}

// Clone returns an independent copy of the batch.
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	copy(out, b)
	return out
}

// ValidateForConfirm runs the confirm-time checks over the whole batch.
// Field problems the normalizer papered over (it never rejects input) are
// reported here, before anything is sent to the backend.
func (b Batch) ValidateForConfirm() *errors.AppError {
	if len(b) == 0 {
		return errors.ErrBatchEmpty
	}

	for i, t := range b {
		v := validation.NewValidator()
		dateField := fmt.Sprintf("transactions[%d].date", i)
		v.Field(dateField, t.Date).
			Required().
			Custom(validDateFor(dateField))
		v.Field(fmt.Sprintf("transactions[%d].category", i), t.Category).Required()
		v.Field(fmt.Sprintf("transactions[%d].amount", i), t.Amount).
			NonNegative(errors.ErrCodeInvalidAmount)
		v.Field(fmt.Sprintf("transactions[%d].transaction_type", i), t.TransactionType).
			OneOf(transaction.Types, errors.ErrCodeInvalidType)

		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func validDateFor(field string) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		s, ok := value.(string)
		if !ok || s == "" {
			// Required() reports the empty case.
			return nil
		}
		if _, err := ParseDate(s); err != nil {
			return errors.NewValidationFieldError(field, fmt.Sprintf("unrecognized date: %s", s), errors.ErrCodeInvalidDate)
		}
		return nil
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
