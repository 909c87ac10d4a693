package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"car-rental-storefront/models"

	"golang.org/x/exp/slices"
)

// The rental API is inconsistent about response shapes. Every endpoint goes
// through exactly one of the decoders below.

var errUnexpectedShape = errors.New("unexpected response shape")

type envelope struct {
	Success models.FlexBool `json:"success"`
	Data    json.RawMessage `json:"data"`
	Car     json.RawMessage `json:"car"`
	ID      json.RawMessage `json:"id"`
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

// decodeList accepts {success,data:[...]}, a bare array, or {<name>:[...]}
// for any of the given names.
func decodeList[T any](body []byte, names ...string) ([]T, error) {
	var out []T
	switch firstByte(body) {
	case '[':
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err
		}
		return out, nil
	case '{':
	default:
		return nil, errUnexpectedShape
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	keys := append([]string{"data"}, names...)
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok || isNull(raw) || firstByte(raw) != '[' {
			continue
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, errUnexpectedShape
}

// decodeCar accepts {success,data:{...}}, {success,car:{...}} or a bare car object.
func decodeCar(body []byte) (models.Car, error) {
	var car models.Car
	if firstByte(body) != '{' {
		return car, errUnexpectedShape
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return car, err
	}
	var raw json.RawMessage
	switch {
	case bool(env.Success) && firstByte(env.Data) == '{':
		raw = env.Data
	case bool(env.Success) && firstByte(env.Car) == '{':
		raw = env.Car
	case !isNull(env.ID):
		raw = body
	default:
		return car, fmt.Errorf("invalid car data format: %w", errUnexpectedShape)
	}
	if err := json.Unmarshal(raw, &car); err != nil {
		return car, err
	}
	return car, nil
}

// successFlag reads the top-level success field of an object body.
func successFlag(body []byte) bool {
	if firstByte(body) != '{' {
		return false
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	return bool(env.Success)
}

// ErrorMessage extracts the server's message from message, error, detail or
// errors, in that order. Nested collections are flattened into one line.
func ErrorMessage(body []byte, fallback string) string {
	switch firstByte(body) {
	case '{':
	case '"':
		var s string
		if json.Unmarshal(body, &s) == nil && strings.TrimSpace(s) != "" {
			return s
		}
		return fallback
	default:
		return fallback
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return fallback
	}
	for _, k := range []string{"message", "error", "detail", "errors"} {
		if msg := flatten(obj[k]); msg != "" {
			return msg
		}
	}
	return fallback
}

func flatten(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	switch firstByte(raw) {
	case '"':
		var s string
		_ = json.Unmarshal(raw, &s)
		return strings.TrimSpace(s)
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if s := flatten(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case '{':
		var obj map[string]json.RawMessage
		if json.Unmarshal(raw, &obj) != nil {
			return ""
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := flatten(obj[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case 't', 'f':
		return ""
	}
	return strings.TrimSpace(string(raw))
}
