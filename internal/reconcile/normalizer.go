package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
)

// Normalize turns one raw extracted record into the canonical transaction
// shape. It resolves the legacy field aliases, fills defaults and coerces
// the amount; it never fails, because extraction output is untrusted and a
// bad record must not take down the reconciliation screen. Normalizing an
// already canonical record changes nothing.
func Normalize(raw transaction.Raw) transaction.Transaction {
	t := transaction.Transaction{
		Date:             strings.TrimSpace(raw.Date),
		Time:             strings.TrimSpace(raw.Time),
		Amount:           CoerceAmount(raw.Amount),
		Category:         strings.TrimSpace(raw.Category),
		TransactionType:  resolveType(raw),
		DetailSourceItem: raw.DetailSourceItem,
		Description:      raw.Description,
		VaultLocation:    raw.VaultLocation,
		Attachments:      raw.Attachments,
		SecondaryDate:    raw.SecondaryDate,
		SecondaryTime:    raw.SecondaryTime,
	}

	if t.DetailSourceItem == "" {
		t.DetailSourceItem = raw.Description
	}
	if t.VaultLocation == "" {
		t.VaultLocation = transaction.DefaultVaultLocation
	}

	// Secondary date/time only carry meaning for savings.
	if t.TransactionType != transaction.TypeSavings {
		t.SecondaryDate = ""
		t.SecondaryTime = ""
	}

	return t
}

// NormalizeAll maps a whole extraction payload into a draft batch.
func NormalizeAll(raws []transaction.Raw) []transaction.Transaction {
	out := make([]transaction.Transaction, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw)
	}
	return out
}

// resolveType prefers the canonical field, falls back to the legacy alias
// and defaults to expense. Values are lowercased so "Income" from a sheet
// export matches the enum.
func resolveType(raw transaction.Raw) string {
	for _, candidate := range []string{raw.TransactionType, raw.Type} {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if transaction.IsValidType(candidate) {
			return candidate
		}
	}
	return transaction.TypeExpense
}

// CoerceAmount converts whatever the extraction backend produced into a
// number. Strings may carry the leading apostrophe Google Sheets adds to
// text-formatted numbers. Anything unparseable becomes 0.
func CoerceAmount(v any) float64 {
	switch amount := v.(type) {
	case float64:
		return amount
	case float32:
		return float64(amount)
	case int:
		return float64(amount)
	case int64:
		return float64(amount)
	case json.Number:
		f, err := amount.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(amount), "'")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
