package escpos

import (
	"strconv"
	"strings"
)

// Paper line widths in characters for a 58mm head with font A.
const (
	LineWidth        = 32
	ReceiptNameWidth = 20
	LabelNameWidth   = 24
)

var (
	doubleRule = strings.Repeat("=", LineWidth)
	singleRule = strings.Repeat("-", LineWidth)
)

// FormatNumber renders n with '.' as the thousands separator, e.g.
// 1234567 becomes "1.234.567".
func FormatNumber(n int64) string {
	negative := n < 0
	var digits string
	if negative {
		// strconv on the unsigned magnitude keeps math.MinInt64 intact
		digits = strconv.FormatUint(uint64(-(n + 1))+1, 10)
	} else {
		digits = strconv.FormatInt(n, 10)
	}

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3 + 1)
	if negative {
		b.WriteByte('-')
	}
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Money converts an amount to whole currency units and formats it. The
// fractional part is dropped by integer conversion: Rupiah amounts carry no
// subdivision, so this rounds to the currency unit rather than losing value.
func Money(amount float64) string {
	return FormatNumber(int64(amount))
}

// Truncate cuts s to at most width characters.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == width {
			return s[:i]
		}
		count++
	}
	return s
}

// TransactionPrefix returns the first eight characters of a transaction id.
func TransactionPrefix(id string) string {
	return Truncate(id, 8)
}
