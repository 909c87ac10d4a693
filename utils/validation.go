package utils

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"car-rental-storefront/models"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a json field name to a human message. A non-empty map
// blocks the outbound request.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Clear removes the error of one field, as the client does while the user edits.
func (e FieldErrors) Clear(field string) {
	delete(e, field)
}

// Err returns nil for an empty map so callers can use the usual err != nil check.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

// Validator returns the shared validator with the storefront's custom tags.
// It is also installed as the iris app validator so ReadJSON runs the same rules.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("phone_digits", func(fl validator.FieldLevel) bool {
			return ValidatePhoneNumber(fl.Field().String())
		})
		_ = v.RegisterValidation("aadhar", func(fl validator.FieldLevel) bool {
			return ValidateAadhar(fl.Field().String())
		})
		_ = v.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
			return ValidatePAN(fl.Field().String())
		})
		validate = v
	})
	return validate
}

var fieldLabels = map[string]string{
	"first_name":      "First name",
	"last_name":       "Last name",
	"phone_no":        "Phone number",
	"adharno":         "Aadhar number",
	"pan_no":          "PAN number",
	"gender":          "Gender",
	"pickup_location": "Pickup location",
	"drop_location":   "Drop location",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return strings.ReplaceAll(field, "_", " ")
}

// TranslateValidationErrors turns validator errors into storefront messages.
func TranslateValidationErrors(errs validator.ValidationErrors) FieldErrors {
	out := FieldErrors{}
	for _, fe := range errs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		switch fe.Tag() {
		case "notblank", "required":
			out[field] = label(field) + " is required"
		case "phone_digits":
			out[field] = "Phone number must be 10-15 digits"
		case "aadhar":
			out[field] = "Aadhar number must be exactly 12 digits"
		case "pan":
			out[field] = "PAN number must be in format ABCDE1234F"
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of: %s", label(field), fe.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", label(field), fe.Param())
		default:
			out[field] = label(field) + " is invalid"
		}
	}
	return out
}

func validateStruct(s interface{}) FieldErrors {
	err := Validator().Struct(s)
	if err == nil {
		return FieldErrors{}
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		return TranslateValidationErrors(errs)
	}
	return FieldErrors{"_": err.Error()}
}

// ValidateCustomer checks step one of the booking wizard.
func ValidateCustomer(in models.CustomerInput) FieldErrors {
	return validateStruct(in)
}

// ValidateJourney checks step two. Dates are calendar days (YYYY-MM-DD); the
// start may be today but not earlier, the end must be strictly after the start.
func ValidateJourney(in models.JourneyDetails, today time.Time) FieldErrors {
	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropLocation = strings.TrimSpace(in.DropLocation)
	errs := validateStruct(in)

	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	from := strings.TrimSpace(in.JourneyFromDate)
	end := strings.TrimSpace(in.JourneyEndDate)

	var start time.Time
	startOK := false
	switch {
	case from == "":
		errs["journey_from_date"] = "Journey start date is required"
	default:
		t, err := time.Parse(models.DateLayout, from)
		if err != nil {
			errs["journey_from_date"] = "Journey start date is invalid"
			break
		}
		start, startOK = t, true
		if t.Before(day) {
			errs["journey_from_date"] = "Journey start date cannot be in the past"
		}
	}

	switch {
	case end == "":
		errs["journey_end_date"] = "Journey end date is required"
	default:
		t, err := time.Parse(models.DateLayout, end)
		if err != nil {
			errs["journey_end_date"] = "Journey end date is invalid"
			break
		}
		if startOK && !t.After(start) {
			errs["journey_end_date"] = "Journey end date must be after start date"
		}
	}
	return errs
}
