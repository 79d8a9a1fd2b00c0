package value

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// maxExponent bounds scientific notation accepted by ParseNumber; larger
// magnitudes would overflow what a cell can sensibly display.
const maxExponent = 400

// ParseNumber reads the longest numeric prefix of s after leading
// whitespace, the same way a browser's parseFloat does. "12abc" yields 12,
// "abc" yields false.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	n := numericPrefix(s)
	if n == 0 {
		return decimal.Decimal{}, false
	}
	return parseLiteral(s[:n])
}

// ParseReference parses a value substituted for a {ColumnName} reference.
// Currency symbols, thousands separators and whitespace are removed first
// so "$1,200" reads as 1200.
func ParseReference(s string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	return ParseNumber(cleaned)
}

// IsPlainNumber reports whether the whole trimmed string is a number
// literal, unlike ParseNumber which accepts a prefix.
func IsPlainNumber(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && numericPrefix(s) == len(s)
}

// ParseLeadingInt reads an optionally signed run of digits after leading
// whitespace, ignoring whatever follows ("2024abc" yields 2024).
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Truthy applies the spreadsheet truthiness rule used by IF, AND, OR and
// NOT: TRUE/FALSE literals (any case), then numbers (zero is false), then
// any non-empty text is true.
func Truthy(s string) bool {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	if d, ok := ParseNumber(s); ok {
		return !d.IsZero()
	}
	return s != ""
}

// numericPrefix returns the byte length of the number literal at the start
// of s, or 0 when there is none.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		intDigits++
	}
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
			fracDigits++
		}
		if intDigits > 0 || fracDigits > 0 {
			i = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	return i
}

func parseLiteral(lit string) (decimal.Decimal, bool) {
	lit = strings.TrimPrefix(lit, "+")
	mantissa, exponent := lit, ""
	if idx := strings.IndexAny(lit, "eE"); idx >= 0 {
		mantissa, exponent = lit[:idx], lit[idx+1:]
	}
	neg := strings.HasPrefix(mantissa, "-")
	mantissa = strings.TrimPrefix(mantissa, "-")
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	mantissa = strings.TrimSuffix(mantissa, ".")
	d, err := decimal.NewFromString(mantissa)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if exponent != "" {
		exp, err := strconv.Atoi(exponent)
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return decimal.Decimal{}, false
		}
		d = d.Shift(int32(exp))
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
