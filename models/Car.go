package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RateType is the unit a price is quoted against.
type RateType string

const (
	RateDay   RateType = "day"
	RateWeek  RateType = "week"
	RateHour  RateType = "hour"
	RateKm    RateType = "km"
	RateTrip  RateType = "trip"
	RateMonth RateType = "month"
)

// DefaultRateTypes is used when the rate-type vocabulary cannot be fetched.
var DefaultRateTypes = []RateType{RateDay, RateWeek, RateHour, RateKm, RateTrip, RateMonth}

// Normalize lower-cases and trims the rate type; rate types compare case-insensitively.
func (r RateType) Normalize() RateType {
	return RateType(strings.ToLower(strings.TrimSpace(string(r))))
}

// PriceEntry is one row of a car's regular or discount price list.
type PriceEntry struct {
	PriceType RateType `json:"price_type"`
	MinHours  FlexInt  `json:"min_hours,omitempty"`
	Price     Amount   `json:"price"`
}

type AdditionalDetails struct {
	NoOfSeats FlexInt `json:"no_of_seats"`
}

// The API stores additional_details as a JSON column; depending on the
// deployment it arrives as an object, an encoded string, null or [].
func (d *AdditionalDetails) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(s)
	}
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	type alias AdditionalDetails
	var aux alias
	if err := json.Unmarshal(b, &aux); err != nil {
		return nil
	}
	*d = AdditionalDetails(aux)
	return nil
}

// Car as served by the rental API.
type Car struct {
	ID                   uint              `json:"id"`
	Name                 string            `json:"car_name"`
	Model                string            `json:"car_model"`
	CategoryID           FlexInt           `json:"car_category"`
	Category             *Category         `json:"category,omitempty"`
	IsActive             FlexBool          `json:"is_active"`
	AdditionalDetails    AdditionalDetails `json:"additional_details"`
	NoOfSeats            FlexInt           `json:"no_of_seats,omitempty"`
	Amenities            AmenityRefs       `json:"amenities"`
	PriceDetails         []PriceEntry      `json:"price_details"`
	DiscountPriceDetails []PriceEntry      `json:"discount_price_details"`
	ImageURL             string            `json:"car_image_url"`
	Rating               Amount            `json:"rating"`
	PreferredPriceType   RateType          `json:"preferred_price_type,omitempty"`
}

const DefaultSeats = 5

// Seats prefers additional_details.no_of_seats, then no_of_seats, then the form default.
func (c Car) Seats() int {
	if c.AdditionalDetails.NoOfSeats > 0 {
		return int(c.AdditionalDetails.NoOfSeats)
	}
	if c.NoOfSeats > 0 {
		return int(c.NoOfSeats)
	}
	return DefaultSeats
}

// CarSummary is the slice of a car the booking wizard carries between steps.
type CarSummary struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Model     string   `json:"model"`
	ImageURL  string   `json:"image"`
	Price     *float64 `json:"price,omitempty"`
	PriceType RateType `json:"priceType,omitempty"`
}
