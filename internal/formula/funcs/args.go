package funcs

import "strings"

// SplitArgs splits raw argument text on commas that are not nested inside
// parentheses. When quoteAware is set, commas inside double quotes are kept
// and the quote characters themselves are dropped; \" yields a literal quote.
// Blank input yields no arguments; every argument is trimmed.
func SplitArgs(raw string, quoteAware bool) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var (
		args    []string
		current strings.Builder
		depth   int
		quoted  bool
	)
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if quoteAware {
			if ch == '\\' && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			if ch == '"' {
				quoted = !quoted
				continue
			}
			if quoted {
				current.WriteRune(ch)
				continue
			}
		}
		switch ch {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
		}
		current.WriteRune(ch)
	}
	args = append(args, strings.TrimSpace(current.String()))
	return args
}
