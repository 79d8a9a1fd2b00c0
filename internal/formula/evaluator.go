// Package formula evaluates formula strings against the values of one row.
//
// A formula is either arithmetic over {ColumnName} references, such as
// "{Qty}*{Price}", or a call to one of the named functions, such as
// "DAYS(01/10/2024,01/01/2024)". Anything else is returned unchanged. The
// result is always a display string; evaluation failures render as
// "#ERROR: ..." and never escape as Go errors or panics.
package formula

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/example/boardcalc/internal/formula/funcs"
	"github.com/example/boardcalc/internal/formula/parser"
	"github.com/example/boardcalc/internal/value"
)

var (
	referencePattern  = regexp.MustCompile(`\{([^}]+)\}`)
	arithmeticPattern = regexp.MustCompile(`[+\-*/]`)
)

// Evaluator resolves formulas. The zero value is not usable; call New.
type Evaluator struct {
	clock    funcs.Clock
	logger   *slog.Logger
	maxDepth int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock sets the clock consulted by TODAY and other date defaults.
func WithClock(c funcs.Clock) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger routes evaluation traces to l at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth bounds arithmetic nesting.
func WithMaxDepth(depth int) Option {
	return func(e *Evaluator) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New returns an Evaluator using the system clock and a discarding logger
// unless overridden.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		clock:    funcs.SystemClock,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: parser.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = New()

// EvaluateFormula evaluates formula against plain string cell data using
// the system clock.
func EvaluateFormula(formula string, data map[string]string) string {
	values := make(map[string]value.Value, len(data))
	for k, v := range data {
		values[k] = value.Text(v)
	}
	return defaultEvaluator.Evaluate(formula, values)
}

// EvaluateAny evaluates formula when it is a string and returns "" for
// anything else. Legacy documents may hold non-string formula cells.
func (e *Evaluator) EvaluateAny(formula interface{}, data map[string]value.Value) string {
	s, ok := formula.(string)
	if !ok {
		return ""
	}
	return e.Evaluate(s, data)
}

// Evaluate returns the display text of formula for one row's data.
func (e *Evaluator) Evaluate(formula string, data map[string]value.Value) (result string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("formula evaluation panicked", "formula", formula, "panic", r)
			result = formula
		}
	}()
	if formula == "" {
		return ""
	}

	mode := "literal"
	defer func() {
		e.logger.Debug("formula evaluated", "formula", formula, "mode", mode, "result", result)
	}()

	if referencePattern.MatchString(formula) && arithmeticPattern.MatchString(formula) {
		mode = "arithmetic"
		return e.arithmetic(formula, data)
	}

	def, raw, ok := funcs.Match(formula)
	if !ok {
		return formula
	}
	mode = def.Name
	raw = substituteDisplay(raw, data)
	v, err := def.Invoke(funcs.Context{Clock: e.clock}, raw)
	if err != nil {
		return renderError(err)
	}
	return v.String()
}

func (e *Evaluator) arithmetic(formula string, data map[string]value.Value) string {
	var failure *value.FormulaError
	expr := referencePattern.ReplaceAllStringFunc(formula, func(ref string) string {
		if failure != nil {
			return ref
		}
		name := ref[1 : len(ref)-1]
		v, ok := lookup(data, name)
		if !ok || v.IsEmpty() {
			failure = value.Errorf(value.MissingReference, "Missing value for column %q", name)
			return ref
		}
		d, ok := v.ToNumber()
		if !ok {
			failure = value.Errorf(value.NonNumericReference, "Non-numeric value in column %q", name)
			return ref
		}
		return d.String()
	})
	if failure != nil {
		return failure.Error()
	}

	node, err := parser.ParseWithDepth(expr, e.maxDepth)
	if err != nil {
		return invalidExpression(err).Error()
	}
	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		e.logger.Debug("arithmetic parsed", "formula", formula, "expr", parser.FormatExpression(node))
	}
	d, err := evalArithmetic(node)
	if err != nil {
		return invalidExpression(err).Error()
	}
	return value.FormatNumber(d)
}

func invalidExpression(err error) *value.FormulaError {
	detail := err.Error()
	var perr *parser.Error
	if errors.As(err, &perr) {
		detail = perr.Msg
	}
	detail = strings.TrimPrefix(detail, "parser: ")
	return value.Errorf(value.InvalidExpression, "Invalid arithmetic expression: %s", detail)
}

// substituteDisplay replaces references inside function arguments with the
// display text of the referenced value. Unknown references stay as written.
func substituteDisplay(raw string, data map[string]value.Value) string {
	if !strings.Contains(raw, "{") {
		return raw
	}
	return referencePattern.ReplaceAllStringFunc(raw, func(ref string) string {
		if v, ok := lookup(data, ref[1:len(ref)-1]); ok {
			return v.String()
		}
		return ref
	})
}

// lookup resolves a column name exactly, then by Unicode case folding.
// An exact match always wins; among folded matches the smallest key wins.
func lookup(data map[string]value.Value, name string) (value.Value, bool) {
	if v, ok := data[name]; ok {
		return v, true
	}
	folder := cases.Fold()
	want := folder.String(name)
	var keys []string
	for k := range data {
		if folder.String(k) == want {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return value.Value{}, false
	}
	sort.Strings(keys)
	return data[keys[0]], true
}

func renderError(err error) string {
	var ferr *value.FormulaError
	if errors.As(err, &ferr) {
		return value.Error(ferr).String()
	}
	return value.ErrorPrefix + ": " + err.Error()
}
