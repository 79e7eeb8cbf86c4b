package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExternalNumber is a numeric field from a third-party payload that may be missing.
// The provider emits the same field as a JSON number, a numeric string, null,
// "" or the literal "NULL"; every non-numeric form decodes to an invalid value.
type ExternalNumber struct {
	Value float64
	Valid bool
}

// UnmarshalJSON never fails, so one malformed field cannot reject a whole record
func (n *ExternalNumber) UnmarshalJSON(data []byte) error {
	*n = ExternalNumber{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*n = ParseExternalNumber(s)
		return nil
	}

	*n = ParseExternalNumber(string(data))
	return nil
}

// MarshalJSON renders absent values as null
func (n ExternalNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// ParseExternalNumber parses a provider number. "NULL", empty, non-numeric,
// NaN and infinite inputs are all absent; none of them becomes zero.
func ParseExternalNumber(s string) ExternalNumber {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return ExternalNumber{}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return ExternalNumber{}
	}
	return ExternalNumber{Value: v, Valid: true}
}

// IntPtr returns the value as an int, or nil when absent, fractional or out of range
func (n ExternalNumber) IntPtr() *int {
	if !n.Valid || n.Value != math.Trunc(n.Value) {
		return nil
	}
	if n.Value < math.MinInt32 || n.Value > math.MaxInt32 {
		return nil
	}
	v := int(n.Value)
	return &v
}

// FloatPtr returns the value, or nil when absent
func (n ExternalNumber) FloatPtr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// NonZero treats a zero reading as absent. The catalog provider reports
// "no counter" and "no market price" as 0.
func (n ExternalNumber) NonZero() ExternalNumber {
	if n.Valid && n.Value == 0 {
		return ExternalNumber{}
	}
	return n
}

// optionalString trims s and returns nil for empty values
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
