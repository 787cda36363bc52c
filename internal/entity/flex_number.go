package entity

import (
	"bytes"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FlexNumber is an optional upstream number that may arrive as a JSON number, a numeric
// string, null or not at all. Only finite values are kept; anything else leaves it unset.
type FlexNumber struct {
	Value float64
	Valid bool
}

// Num returns a set FlexNumber holding v.
func Num(v float64) FlexNumber {
	return FlexNumber{Value: v, Valid: true}
}

// UnmarshalJSON never fails: unparseable or non-finite input simply yields an unset number.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	*n = FlexNumber{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(v) {
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

// MarshalJSON writes the number, or null when unset.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid || !isFinite(n.Value) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Value, 'g', -1, 64), nil
}

// Or returns the value when set, def otherwise.
func (n FlexNumber) Or(def float64) float64 {
	if n.Valid {
		return n.Value
	}
	return def
}

func isFinite(v float64) bool {
	return v == v && v-v == 0
}
