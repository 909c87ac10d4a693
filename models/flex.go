package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Amount is a money value. The rental API sends it either as a JSON number or
// as a decimal string ("750.00"). Zero means "not set", never a free price.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s, ok := scalarText(b)
	if !ok {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

// Set reports whether the amount is a usable (positive) price.
func (a Amount) Set() bool { return a > 0 }

// FlexInt accepts 7, "7" and null.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(b []byte) error {
	s, ok := scalarText(b)
	if !ok {
		*i = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*i = FlexInt(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*i = 0
		return nil
	}
	*i = FlexInt(int(f))
	return nil
}

// FlexBool accepts true/false, 1/0, "1"/"0" and "true"/"false".
type FlexBool bool

func (v *FlexBool) UnmarshalJSON(b []byte) error {
	s, ok := scalarText(b)
	if !ok {
		*v = false
		return nil
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		*v = true
	default:
		*v = false
	}
	return nil
}

// scalarText returns the unquoted text of a JSON scalar, or false for null,
// empty strings and non-scalars.
func scalarText(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", false
	}
	switch b[0] {
	case '{', '[':
		return "", false
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	return string(b), true
}
