package models

import (
	"bytes"
	"encoding/json"
)

// Category represents a car category (Sedan, SUV, ...)
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DefaultCategories is used when the category vocabulary cannot be fetched.
var DefaultCategories = []Category{
	{ID: 1, Name: "Hatchback"},
	{ID: 2, Name: "Sedan"},
	{ID: 3, Name: "SUV"},
	{ID: 4, Name: "MUV"},
	{ID: 5, Name: "Luxury"},
	{ID: 6, Name: "Premium Sedan"},
}

func (c *Category) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &c.Name)
	}
	var aux struct {
		ID           FlexInt `json:"id"`
		Name         string  `json:"name"`
		CategoryName string  `json:"category_name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.ID = int(aux.ID)
	c.Name = firstNonEmpty(aux.Name, aux.CategoryName)
	return nil
}

// Amenity represents a car amenity (AC, GPS, ...)
type Amenity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (a *Amenity) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID          FlexInt `json:"id"`
		Name        string  `json:"name"`
		AmenityName string  `json:"amenity_name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.ID = int(aux.ID)
	a.Name = firstNonEmpty(aux.Name, aux.AmenityName)
	return nil
}

// RateTypeOption is one entry of the rate-type vocabulary. The endpoint
// serves either bare strings or objects.
type RateTypeOption struct {
	ID   int      `json:"id,omitempty"`
	Name RateType `json:"name"`
}

func (o *RateTypeOption) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		o.Name = RateType(s).Normalize()
		return nil
	}
	var aux struct {
		ID        FlexInt `json:"id"`
		Name      string  `json:"name"`
		PriceType string  `json:"price_type"`
		Type      string  `json:"type"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	o.ID = int(aux.ID)
	o.Name = RateType(firstNonEmpty(aux.PriceType, aux.Name, aux.Type)).Normalize()
	return nil
}

// DefaultRateTypeOptions wraps DefaultRateTypes for the reference-data response.
func DefaultRateTypeOptions() []RateTypeOption {
	out := make([]RateTypeOption, 0, len(DefaultRateTypes))
	for _, rt := range DefaultRateTypes {
		out = append(out, RateTypeOption{Name: rt})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
