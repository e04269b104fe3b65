package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a float that decodes leniently from JSON. Numbers and numeric
// strings are accepted; anything else (null, "", "abc", true, objects, NaN)
// decodes to 0 without error.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	v, ok := parseLenient(data)
	if !ok {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Float returns the value as a float64, with non-finite values mapped to 0.
func (n Number) Float() float64 {
	return finiteOrZero(float64(n))
}

// OptionalNumber is a nullable float that decodes leniently from JSON.
// null, "", and non-numeric input leave it invalid.
type OptionalNumber struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *OptionalNumber) UnmarshalJSON(data []byte) error {
	v, ok := parseLenient(data)
	n.Value, n.Valid = v, ok
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n OptionalNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns a pointer to the value, or nil when invalid.
func (n OptionalNumber) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Some returns a valid OptionalNumber holding v.
func Some(v float64) OptionalNumber {
	return OptionalNumber{Value: v, Valid: true}
}

func parseLenient(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, false
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, false
	}

	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
