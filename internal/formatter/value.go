package formatter

import (
	"encoding/json"
	"strconv"

	"presidentielle/internal/models"
)

type valueKind int

const (
	valueNull valueKind = iota
	valueNumber
	valueText
)

// Value is one plotted datum: a number, a category or nothing
type Value struct {
	kind   valueKind
	number float64
	text   string
}

// NumberValue creates a numeric value
func NumberValue(f float64) Value { return Value{kind: valueNumber, number: f} }

// TextValue creates a categorical value
func TextValue(s string) Value { return Value{kind: valueText, text: s} }

// NullValue is a missing datum
func NullValue() Value { return Value{} }

func valueOf(c models.Cell, found bool) Value {
	switch {
	case !found || c.Kind == models.CellMissing:
		return NullValue()
	case c.Numeric():
		return NumberValue(c.Number)
	default:
		return TextValue(c.Raw)
	}
}

// IsNull reports whether the value is missing
func (v Value) IsNull() bool { return v.kind == valueNull }

// Number returns the numeric value
func (v Value) Number() (float64, bool) { return v.number, v.kind == valueNumber }

// Text returns the categorical value
func (v Value) Text() (string, bool) { return v.text, v.kind == valueText }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueNumber:
		return []byte(strconv.FormatFloat(v.number, 'f', -1, 64)), nil
	case valueText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NullValue()
	case float64:
		*v = NumberValue(t)
	case string:
		*v = TextValue(t)
	default:
		*v = TextValue(string(data))
	}
	return nil
}
