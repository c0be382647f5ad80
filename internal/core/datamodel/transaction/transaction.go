package transaction

// Transaction types. After normalization the transaction_type field is
// always one of these three values.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
	TypeSavings = "savings"
)

// DefaultVaultLocation is used when the extraction backend does not name the
// money pool a transaction draws from.
const DefaultVaultLocation = "Other"

// Types lists the valid transaction types in display order.
var Types = []string{TypeExpense, TypeIncome, TypeSavings}

// IsValidType reports whether t is one of the canonical transaction types.
func IsValidType(t string) bool {
	return t == TypeExpense || t == TypeIncome || t == TypeSavings
}

// Transaction is the canonical record every package past the normalization
// boundary works with. Drafts are mutated in place during reconciliation and
// become immutable once the confirm batch is accepted by the backend.
type Transaction struct {
	Date             string  `json:"date"`
	Time             string  `json:"time"`
	Amount           float64 `json:"amount"`
	Category         string  `json:"category"`
	TransactionType  string  `json:"transaction_type"`
	DetailSourceItem string  `json:"detail_source_item"`
	Description      string  `json:"description"`
	VaultLocation    string  `json:"vault_location"`
	Attachments      string  `json:"attachments"`
	// SecondaryDate/SecondaryTime are only meaningful for savings
	// transactions, marking a planned future spend or withdrawal.
	SecondaryDate string `json:"secondary_date"`
	SecondaryTime string `json:"secondary_time"`
}

// Raw is a single entry of the extraction backend's payload before
// normalization. The extraction output is untrusted: fields may be missing
// and the amount may arrive as a number, a string, or garbage, so the type
// stays loose until the normalizer has coerced it.
type Raw struct {
	Date             string `json:"date"`
	Time             string `json:"time"`
	Amount           any    `json:"amount"`
	Category         string `json:"category"`
	TransactionType  string `json:"transaction_type"`
	Type             string `json:"type"` // legacy alias for transaction_type
	DetailSourceItem string `json:"detail_source_item"`
	Description      string `json:"description"`
	VaultLocation    string `json:"vault_location"`
	Attachments      string `json:"attachments"`
	SecondaryDate    string `json:"secondary_date"`
	SecondaryTime    string `json:"secondary_time"`
}

// Raw converts a canonical transaction back to the loose shape, used when a
// reconciliation edit has to pass through the normalizer again.
func (t Transaction) Raw() Raw {
	return Raw{
		Date:             t.Date,
		Time:             t.Time,
		Amount:           t.Amount,
		Category:         t.Category,
		TransactionType:  t.TransactionType,
		DetailSourceItem: t.DetailSourceItem,
		Description:      t.Description,
		VaultLocation:    t.VaultLocation,
		Attachments:      t.Attachments,
		SecondaryDate:    t.SecondaryDate,
		SecondaryTime:    t.SecondaryTime,
	}
}
