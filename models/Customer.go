package models

import "strings"

// CustomerInput is step one of the booking wizard as the storefront collects it.
type CustomerInput struct {
	FirstName   string   `json:"first_name" validate:"notblank"`
	LastName    string   `json:"last_name" validate:"notblank"`
	Address     string   `json:"address"`
	AdharNo     string   `json:"adharno" validate:"omitempty,aadhar"`
	PANNo       string   `json:"pan_no" validate:"omitempty,pan"`
	PhoneNo     string   `json:"phone_no" validate:"notblank,phone_digits"`
	Gender      string   `json:"gender" validate:"omitempty,oneof=male female other"`
	IsPrimeUser FlexBool `json:"is_prime_user"`
	IsRedFlag   FlexBool `json:"is_red_flag"`
}

// CustomerPayload is the body of POST /api/customer/add.
type CustomerPayload struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Address     string  `json:"address"`
	AdharNo     string  `json:"adharno"`
	PANNo       *string `json:"pan_no"`
	PhoneNo     string  `json:"phone_no"`
	Gender      string  `json:"gender"`
	IsPrimeUser int     `json:"is_prime_user"`
	IsRedFlag   int     `json:"is_red_flag"`
	CarID       uint    `json:"car_id"`
}

// Payload builds the outbound request: PAN upper-cased or null, flags as 1/0.
func (in CustomerInput) Payload(carID uint) CustomerPayload {
	p := CustomerPayload{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Address:   in.Address,
		AdharNo:   strings.TrimSpace(in.AdharNo),
		PhoneNo:   strings.TrimSpace(in.PhoneNo),
		Gender:    in.Gender,
		CarID:     carID,
	}
	if pan := strings.TrimSpace(in.PANNo); pan != "" {
		pan = strings.ToUpper(pan)
		p.PANNo = &pan
	}
	if in.IsPrimeUser {
		p.IsPrimeUser = 1
	}
	if in.IsRedFlag {
		p.IsRedFlag = 1
	}
	return p
}
