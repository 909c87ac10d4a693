package utils

import (
	"regexp"
	"strings"
)

var (
	phoneDigits  = regexp.MustCompile(`^\d{10,15}$`)
	aadharDigits = regexp.MustCompile(`^\d{12}$`)
	panFormat    = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// ValidatePhoneNumber accepts 10 to 15 digits, nothing else, after trimming.
func ValidatePhoneNumber(phoneNumber string) bool {
	return phoneDigits.MatchString(strings.TrimSpace(phoneNumber))
}

// ValidateAadhar accepts exactly 12 digits after trimming.
func ValidateAadhar(number string) bool {
	return aadharDigits.MatchString(strings.TrimSpace(number))
}

// NormalizePAN trims and upper-cases a PAN; PANs are case-insensitive on input.
func NormalizePAN(pan string) string {
	return strings.ToUpper(strings.TrimSpace(pan))
}

// ValidatePAN checks the normalized PAN against ABCDE1234F.
func ValidatePAN(pan string) bool {
	return panFormat.MatchString(NormalizePAN(pan))
}

// DisplayPhoneNumber formats a 10 digit number as XXXXX XXXXX and a 12 digit
// one with a country prefix, e.g. +91 98765 43210.
func DisplayPhoneNumber(phoneNumber string) string {
	digits := strings.TrimSpace(phoneNumber)
	if !ValidatePhoneNumber(digits) {
		return phoneNumber
	}
	switch len(digits) {
	case 10:
		return digits[:5] + " " + digits[5:]
	case 12:
		return "+" + digits[:2] + " " + digits[2:7] + " " + digits[7:]
	}
	return digits
}
