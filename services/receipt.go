package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"car-rental-storefront/models"
	"car-rental-storefront/utils"

	"github.com/jung-kurt/gofpdf"
)

var ErrNotCompleted = errors.New("booking is not completed yet")

// RenderReceipt builds the PDF acknowledgment of a completed wizard session.
func RenderReceipt(state *WizardState) ([]byte, error) {
	if state == nil || state.Step != StepCompleted {
		return nil, ErrNotCompleted
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking acknowledgment", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Booking request received", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Reference: "+state.ID, "", 1, "L", false, 0, "")
	if state.CompletedAt != nil {
		pdf.CellFormat(0, 6, "Submitted: "+state.CompletedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	car := state.Context.Car
	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, label, "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, value, "1", 1, "L", false, 0, "")
	}

	section := func(title string) {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	}

	section("Car")
	row("Car", strings.TrimSpace(car.Name+" "+car.Model))
	if car.Price != nil {
		// the core fonts have no rupee glyph
		row("Price", fmt.Sprintf("INR %s/%s", formatAmount(*car.Price), car.PriceType))
	}

	section("Customer")
	if c := state.Customer; c != nil {
		row("Name", strings.TrimSpace(c.FirstName+" "+c.LastName))
		row("Phone", utils.DisplayPhoneNumber(c.PhoneNo))
	}
	if state.CustomerID > 0 {
		row("Customer ID", fmt.Sprint(state.CustomerID))
	}

	section("Journey")
	row("From", state.Journey.JourneyFromDate)
	row("To", state.Journey.JourneyEndDate)
	row("Pickup", state.Journey.PickupLocation)
	row("Drop", state.Journey.DropLocation)
	row("Status", models.BookingStatusPending)
	if state.BookingID > 0 {
		row("Booking ID", fmt.Sprint(state.BookingID))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
