package table

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is a single cell. Text is the trimmed source text; Null marks
// blank cells and the usual null spellings.
type Value struct {
	Text string
	Null bool
}

// NewValue builds a Value from raw cell text.
func NewValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if isNullText(s) {
		return Value{Text: s, Null: true}
	}

	return Value{Text: s}
}

// Kind classifies the value. Null values are KindEmpty.
func (v Value) Kind() Kind {
	if v.Null {
		return KindEmpty
	}

	return inferValueKind(v.Text)
}

// Decimal parses the value as an amount. Null and non-numeric values report false.
func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.Null {
		return decimal.Zero, false
	}

	return parseDecimal(v.Text)
}

// IsBlank reports whether the cell is empty after trimming. Unlike Null it
// treats spellings such as "NA" or "None" as text.
func (v Value) IsBlank() bool {
	return v.Text == ""
}

// String returns the cell text; nulls render as the empty string.
func (v Value) String() string {
	if v.Null {
		return ""
	}

	return v.Text
}

func isNullText(s string) bool {
	switch strings.ToLower(s) {
	case "", "null", "na", "n/a", "nan", "none":
		return true
	}

	return false
}

// cleanNumber strips currency symbols, thousands separators, and accounting
// parentheses. The returned flag reports a parenthesized negative.
func cleanNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.TrimLeft(s, "$€£¥ ")
	s = strings.ReplaceAll(s, ",", "")

	return s, negative
}

func parseInteger(s string) (int64, bool) {
	clean, negative := cleanNumber(s)
	if clean == "" {
		return 0, false
	}

	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, false
	}

	if negative {
		n = -n
	}

	return n, true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	clean, negative := cleanNumber(s)
	if clean == "" {
		return decimal.Zero, false
	}

	// decimal accepts exponents; spreadsheets export them for large amounts.
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}

	if negative {
		d = d.Neg()
	}

	return d, true
}
