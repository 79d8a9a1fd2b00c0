package table

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/boardcalc/internal/value"
)

// CellKind enumerates the stored shapes of a cell value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBool
	CellPeople
	CellStatus
	CellFormula
	// CellRaw holds JSON that matches no known shape; it is written back
	// unchanged.
	CellRaw
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	case CellPeople:
		return "people"
	case CellStatus:
		return "status"
	case CellFormula:
		return "formula"
	case CellRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// FormulaCell is the stored shape of an applied formula: the source text
// and its last computed display value.
type FormulaCell struct {
	Value        string `json:"value"`
	DisplayValue string `json:"displayValue"`
}

// CellValue is the polymorphic value of a cell. Only the field matching
// Kind is meaningful.
type CellValue struct {
	Kind    CellKind
	Text    string
	Number  json.Number
	Bool    bool
	People  []value.UserRef
	Status  value.Status
	Formula FormulaCell
	Raw     json.RawMessage
}

// TextValue returns a text cell value.
func TextValue(s string) CellValue { return CellValue{Kind: CellText, Text: s} }

// PeopleValue returns a person cell value.
func PeopleValue(refs []value.UserRef) CellValue {
	if refs == nil {
		refs = []value.UserRef{}
	}
	return CellValue{Kind: CellPeople, People: refs}
}

// StatusValue returns a status cell value.
func StatusValue(v, color string) CellValue {
	return CellValue{Kind: CellStatus, Status: value.Status{Value: v, Color: color}}
}

// FormulaValue returns a formula cell value in the {value, displayValue} shape.
func FormulaValue(source, display string) CellValue {
	return CellValue{Kind: CellFormula, Formula: FormulaCell{Value: source, DisplayValue: display}}
}

// NumberValue returns a numeric cell value.
func NumberValue(n json.Number) CellValue { return CellValue{Kind: CellNumber, Number: n} }

// BoolValue returns a boolean cell value.
func BoolValue(b bool) CellValue { return CellValue{Kind: CellBool, Bool: b} }

// FormulaSource returns the formula text held by a formula-column cell,
// accepting both the object shape and legacy bare strings.
func (c CellValue) FormulaSource() (string, bool) {
	switch c.Kind {
	case CellFormula:
		return c.Formula.Value, true
	case CellText:
		return c.Text, true
	default:
		return "", false
	}
}

// Scalar converts the stored value into its evaluation variant.
func (c CellValue) Scalar() value.Value {
	switch c.Kind {
	case CellText:
		return value.Text(c.Text)
	case CellNumber:
		d, err := decimal.NewFromString(c.Number.String())
		if err != nil {
			return value.Text(c.Number.String())
		}
		return value.Number(d)
	case CellBool:
		return value.Bool(c.Bool)
	case CellPeople:
		return value.People(c.People)
	case CellStatus:
		return value.StatusOf(c.Status.Value, c.Status.Color)
	case CellFormula:
		return value.Formula(c.Formula.Value, c.Formula.DisplayValue)
	case CellRaw:
		return value.Text(string(c.Raw))
	default:
		return value.Empty()
	}
}

// Display renders the value as shown in the table.
func (c CellValue) Display() string {
	if c.Kind == CellFormula {
		return c.Formula.DisplayValue
	}
	return c.Scalar().String()
}

// MarshalJSON writes the value in its stored shape.
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellEmpty:
		return []byte("null"), nil
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		if c.Number == "" {
			return []byte("0"), nil
		}
		return []byte(c.Number), nil
	case CellBool:
		return json.Marshal(c.Bool)
	case CellPeople:
		if c.People == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.People)
	case CellStatus:
		return json.Marshal(c.Status)
	case CellFormula:
		return json.Marshal(c.Formula)
	case CellRaw:
		if len(c.Raw) == 0 {
			return []byte("null"), nil
		}
		return c.Raw, nil
	default:
		return nil, fmt.Errorf("table: unknown cell kind %d", c.Kind)
	}
}

// UnmarshalJSON classifies stored JSON by shape. Objects carrying
// displayValue are formulas, other objects carrying value are statuses and
// arrays are person lists; anything else unrecognised is kept raw.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*c = CellValue{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("table: decode text cell: %w", err)
		}
		*c = TextValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("table: decode bool cell: %w", err)
		}
		*c = BoolValue(b)
	case '[':
		people, ok := decodePeople(trimmed)
		if !ok {
			c.Kind, c.Raw = CellRaw, append(json.RawMessage(nil), trimmed...)
			return nil
		}
		*c = PeopleValue(people)
	case '{':
		*c = decodeObject(trimmed)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("table: decode number cell: %w", err)
		}
		*c = NumberValue(n)
	}
	return nil
}

func decodePeople(data []byte) ([]value.UserRef, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	people := make([]value.UserRef, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			people = append(people, value.UserRef{ID: id})
			continue
		}
		var ref value.UserRef
		if err := json.Unmarshal(item, &ref); err != nil {
			return nil, false
		}
		people = append(people, ref)
	}
	return people, true
}

func decodeObject(data []byte) CellValue {
	raw := CellValue{Kind: CellRaw, Raw: append(json.RawMessage(nil), data...)}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return raw
	}
	inner, hasValue := fields["value"]
	if !hasValue {
		return raw
	}
	if display, ok := fields["displayValue"]; ok {
		return FormulaValue(scalarText(inner), scalarText(display))
	}
	var status value.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return raw
	}
	return CellValue{Kind: CellStatus, Status: status}
}

// scalarText reads a JSON scalar as text; numbers and booleans keep their
// literal spelling and null becomes "".
func scalarText(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	return string(trimmed)
}
