package aggregate

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// First known value wins: the stored value is kept unless it is absent.

func firstString(stored, incoming *string) *string {
	if stored != nil && strings.TrimSpace(*stored) != "" {
		return stored
	}
	if incoming != nil && strings.TrimSpace(*incoming) != "" {
		return incoming
	}
	return stored
}

func firstText(stored, incoming string) string {
	if strings.TrimSpace(stored) != "" {
		return stored
	}
	return incoming
}

func firstDecimal(stored, incoming decimal.NullDecimal) decimal.NullDecimal {
	if stored.Valid {
		return stored
	}
	return incoming
}

// maxAmount reconciles two reports of the same quantity. Providers are
// redundant views of one balance, so the larger report is kept rather than
// the sum. Unparsable reports lose to parsable ones.
func maxAmount(stored, incoming string) string {
	s, serr := records.ParseAmount(stored)
	in, ierr := records.ParseAmount(incoming)

	switch {
	case serr != nil && ierr != nil:
		return stored
	case serr != nil:
		return incoming
	case ierr != nil:
		return stored
	case in.GreaterThan(s):
		return incoming
	default:
		return stored
	}
}

// valueOrZero treats an absent value as zero for ordering.
func valueOrZero(v decimal.NullDecimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return decimal.Zero
}

// compareLabels orders labels ascending, case-insensitively, with absent labels last.
func compareLabels(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
