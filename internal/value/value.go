package value

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates the runtime variants a cell value can take during
// formula evaluation.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindDate
	KindBool
	KindPersonList
	KindStatus
	KindError
	KindFormula
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindNumber:
		return "NUMBER"
	case KindText:
		return "TEXT"
	case KindDate:
		return "DATE"
	case KindBool:
		return "BOOLEAN"
	case KindPersonList:
		return "PERSON_LIST"
	case KindStatus:
		return "STATUS"
	case KindError:
		return "ERROR"
	case KindFormula:
		return "FORMULA"
	default:
		return "UNKNOWN"
	}
}

// UserRef identifies a board member stored in a person cell.
type UserRef struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Label returns the most human readable identifier available.
func (u UserRef) Label() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// Status is the selected option of a status column.
type Status struct {
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// FormulaResult pairs a formula source with its last computed display text.
type FormulaResult struct {
	Source  string
	Display string
}

// Value is a closed tagged variant. Only the field matching Kind is
// meaningful.
type Value struct {
	kind    Kind
	num     decimal.Decimal
	text    string
	date    time.Time
	boolean bool
	people  []UserRef
	status  Status
	err     *FormulaError
	formula FormulaResult
}

// Empty returns the absent value.
func Empty() Value { return Value{kind: KindEmpty} }

// Number wraps a decimal.
func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

// NumberFromInt wraps an integer.
func NumberFromInt(n int64) Value { return Number(decimal.NewFromInt(n)) }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Date wraps a calendar date. The time-of-day is discarded.
func Date(t time.Time) Value { return Value{kind: KindDate, date: CalendarDate(t)} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// People wraps a list of user references.
func People(refs []UserRef) Value {
	cp := make([]UserRef, len(refs))
	copy(cp, refs)
	return Value{kind: KindPersonList, people: cp}
}

// StatusOf wraps a status selection.
func StatusOf(v, color string) Value {
	return Value{kind: KindStatus, status: Status{Value: v, Color: color}}
}

// Error wraps a formula error.
func Error(err *FormulaError) Value { return Value{kind: KindError, err: err} }

// Formula wraps a formula source together with its display text.
func Formula(source, display string) Value {
	return Value{kind: KindFormula, formula: FormulaResult{Source: source, Display: display}}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the value carries nothing.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Decimal returns the numeric payload of a Number value.
func (v Value) Decimal() decimal.Decimal { return v.num }

// ToNumber coerces the value the way a {ColumnName} reference is read in
// arithmetic. Numbers pass through; text, status and formula values are
// read from their display text with ParseReference. Dates, person lists,
// booleans and empty values are not numeric.
func (v Value) ToNumber() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText, KindStatus, KindFormula:
		return ParseReference(v.String())
	default:
		return decimal.Decimal{}, false
	}
}

// String renders the value the way it is shown inside a cell.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.text
	case KindDate:
		return FormatDate(v.date)
	case KindBool:
		if v.boolean {
			return "TRUE"
		}
		return "FALSE"
	case KindPersonList:
		labels := make([]string, 0, len(v.people))
		for _, p := range v.people {
			if l := p.Label(); l != "" {
				labels = append(labels, l)
			}
		}
		return strings.Join(labels, ", ")
	case KindStatus:
		return v.status.Value
	case KindError:
		if v.err == nil {
			return ErrorPrefix
		}
		return v.err.Error()
	case KindFormula:
		return v.formula.Display
	default:
		return ""
	}
}

// FormatNumber renders integral decimals without a fractional part and
// everything else in its shortest exact form.
func FormatNumber(d decimal.Decimal) string {
	if whole := d.Truncate(0); whole.Equal(d) {
		return whole.String()
	}
	return d.String()
}
