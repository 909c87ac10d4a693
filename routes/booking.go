package routes

import (
	"car-rental-storefront/models"
	"car-rental-storefront/services"
	"car-rental-storefront/utils"

	"github.com/kataras/iris/v12"
)

type startSessionInput struct {
	CarID uint `json:"car_id"`
	models.JourneyDetails
}

// POST /api/booking/session
func (h *Handlers) StartBooking(ctx iris.Context) {
	var in startSessionInput
	if err := readJSON(ctx, &in); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if in.CarID == 0 {
		respondError(ctx, services.ErrNoCarSelected)
		return
	}
	state, err := h.Catalog.BookNow(ctx.Request().Context(), in.CarID, in.JourneyDetails)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	utils.JSONData(ctx, state)
}

// GET /api/booking/session/{id}
func (h *Handlers) GetBooking(ctx iris.Context) {
	state, err := h.Wizard.Get(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONData(ctx, state)
}

// DELETE /api/booking/session/{id}
func (h *Handlers) DiscardBooking(ctx iris.Context) {
	if err := h.Wizard.Discard(ctx.Request().Context(), ctx.Params().Get("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// POST /api/booking/session/{id}/customer
func (h *Handlers) SubmitCustomer(ctx iris.Context) {
	var in models.CustomerInput
	if err := readJSON(ctx, &in); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	state, err := h.Wizard.SubmitCustomer(ctx.Request().Context(), ctx.Params().Get("id"), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONData(ctx, state)
}

// POST /api/booking/session/{id}/journey
func (h *Handlers) SubmitJourney(ctx iris.Context) {
	var in models.JourneyDetails
	if err := readJSON(ctx, &in); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	state, err := h.Wizard.SubmitJourney(ctx.Request().Context(), ctx.Params().Get("id"), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Audit(ctx, "booking.created", "booking", state.BookingID, nil, iris.Map{
		"session_id":  state.ID,
		"car_id":      state.Context.Car.ID,
		"customer_id": state.CustomerID,
		"journey":     state.Journey,
	})
	utils.JSONData(ctx, state)
}

// POST /api/booking/session/{id}/back
func (h *Handlers) BookingBack(ctx iris.Context) {
	state, err := h.Wizard.Back(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONData(ctx, state)
}

// GET /api/booking/session/{id}/receipt
func (h *Handlers) BookingReceipt(ctx iris.Context) {
	state, err := h.Wizard.Get(ctx.Request().Context(), ctx.Params().Get("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	pdf, err := services.RenderReceipt(state)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.ContentType("application/pdf")
	ctx.Header("Content-Disposition", `inline; filename="booking-`+state.ID+`.pdf"`)
	ctx.Write(pdf)
}
