// Package funcs implements the named formula functions. Every function is
// pure: it receives the raw argument text already split into parameters and
// returns a value or a *value.FormulaError.
package funcs

import (
	"strings"
	"time"

	"github.com/example/boardcalc/internal/value"
)

// Clock supplies the current time to TODAY and friends.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// Context carries the collaborators a function may consult.
type Context struct {
	Clock Clock
}

func (c Context) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

// Func is the signature shared by every formula function.
type Func func(ctx Context, args []string) (value.Value, error)

// Definition binds a function name to its implementation.
type Definition struct {
	Name string
	// QuoteAware makes the argument splitter honour double-quoted strings.
	QuoteAware bool
	// Raw passes the whole trimmed argument text as a single parameter.
	Raw  bool
	Call Func
}

// builtins is ordered by dispatch priority: date functions, then math,
// then text, then logical.
var builtins = []Definition{
	{Name: "TODAY", Call: today},
	{Name: "DATE", Call: date},
	{Name: "DAYS", Call: days},
	{Name: "YEAR", Call: year},
	{Name: "WORKDAYS", Call: workdays},
	{Name: "FORMAT_DATE", QuoteAware: true, Call: formatDate},
	{Name: "SUM", Call: sum},
	{Name: "AVERAGE", Call: average},
	{Name: "COUNT", Call: count},
	{Name: "MAX", Call: maxOf},
	{Name: "MIN", Call: minOf},
	{Name: "CONCATENATE", Call: concatenate},
	{Name: "FIND", Call: find},
	{Name: "LEFT", Call: left},
	{Name: "RIGHT", Call: right},
	{Name: "IF", Call: ifFunc},
	{Name: "AND", Call: and},
	{Name: "OR", Call: or},
	{Name: "NOT", Raw: true, Call: not},
}

// Match finds the first function whose NAME( prefix and closing
// parenthesis enclose the formula, and returns the raw argument text.
func Match(formula string) (Definition, string, bool) {
	formula = strings.TrimSpace(formula)
	if !strings.HasSuffix(formula, ")") {
		return Definition{}, "", false
	}
	for _, def := range builtins {
		prefix := def.Name + "("
		if strings.HasPrefix(formula, prefix) {
			return def, formula[len(prefix) : len(formula)-1], true
		}
	}
	return Definition{}, "", false
}

// Invoke splits the raw argument text the way def expects and calls it.
func (def Definition) Invoke(ctx Context, raw string) (value.Value, error) {
	var args []string
	switch {
	case def.Raw:
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			args = []string{trimmed}
		}
	default:
		args = SplitArgs(raw, def.QuoteAware)
	}
	return def.Call(ctx, args)
}

// Names lists the supported functions in dispatch order.
func Names() []string {
	out := make([]string, len(builtins))
	for i, def := range builtins {
		out[i] = def.Name
	}
	return out
}
