package models

import "strings"

// DateLayout is the wire format of journey dates.
const DateLayout = "2006-01-02"

// JourneyDetails is both the journey context carried from a search into the
// wizard and the step-two input.
type JourneyDetails struct {
	PickupLocation  string `json:"pickup_location" validate:"max=255"`
	DropLocation    string `json:"drop_location" validate:"max=255"`
	JourneyFromDate string `json:"journey_from_date"`
	JourneyEndDate  string `json:"journey_end_date"`
}

// HasWindow reports whether both dates are known.
func (j JourneyDetails) HasWindow() bool {
	return strings.TrimSpace(j.JourneyFromDate) != "" && strings.TrimSpace(j.JourneyEndDate) != ""
}

const BookingStatusPending = "pending"

// BookingPayload is the body of POST /api/booking/add.
type BookingPayload struct {
	CarID           uint   `json:"car_id"`
	CustomerID      uint   `json:"customer_id"`
	JourneyFromDate string `json:"journey_from_date"`
	JourneyEndDate  string `json:"journey_end_date"`
	PickupLocation  string `json:"pickup_location,omitempty"`
	DropLocation    string `json:"drop_location,omitempty"`
	Status          string `json:"status"`
}

// NewBookingPayload trims the optional locations and omits them when blank.
func NewBookingPayload(carID, customerID uint, j JourneyDetails) BookingPayload {
	return BookingPayload{
		CarID:           carID,
		CustomerID:      customerID,
		JourneyFromDate: strings.TrimSpace(j.JourneyFromDate),
		JourneyEndDate:  strings.TrimSpace(j.JourneyEndDate),
		PickupLocation:  strings.TrimSpace(j.PickupLocation),
		DropLocation:    strings.TrimSpace(j.DropLocation),
		Status:          BookingStatusPending,
	}
}
