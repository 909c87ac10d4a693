package routes

import (
	"encoding/json"
	"errors"

	"car-rental-storefront/services"
	"car-rental-storefront/utils"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
)

// respondError maps service errors onto the storefront's JSON error envelope.
func respondError(ctx iris.Context, err error) {
	var (
		fieldErrs utils.FieldErrors
		rejected  *services.ImageRejectedError
		apiErr    *services.APIError
		transport *services.TransportError
	)
	switch {
	case errors.As(err, &fieldErrs):
		utils.JSONValidationErrors(ctx, fieldErrs)
	case errors.Is(err, services.ErrSessionNotFound):
		utils.CreateError(iris.StatusNotFound, "session_not_found", err.Error(), ctx)
	case errors.Is(err, services.ErrCarNotFound):
		utils.CreateError(iris.StatusNotFound, "car_not_found", err.Error(), ctx)
	case errors.Is(err, services.ErrInvalidStep):
		utils.CreateError(iris.StatusConflict, "invalid_step", err.Error(), ctx)
	case errors.Is(err, services.ErrSubmissionInFlight):
		utils.CreateError(iris.StatusConflict, "submission_in_flight", err.Error(), ctx)
	case errors.Is(err, services.ErrNotCompleted):
		utils.CreateError(iris.StatusConflict, "booking_not_completed", err.Error(), ctx)
	case errors.Is(err, services.ErrNoCarSelected):
		utils.CreateError(iris.StatusBadRequest, "car_required", err.Error(), ctx)
	case errors.As(err, &rejected):
		utils.CreateError(iris.StatusBadRequest, "image_rejected", rejected.Error(), ctx)
	case errors.Is(err, services.ErrMissingCustomerID):
		utils.JSONRetryable(ctx, iris.StatusBadGateway, "customer_id_missing", err.Error())
	case errors.As(err, &transport):
		golog.Errorf("❌ rental API unreachable: %v", err)
		utils.JSONRetryable(ctx, iris.StatusBadGateway, "upstream_unavailable", "The car rental service could not be reached. Please try again.")
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 || apiErr.Status < 400 {
			golog.Errorf("❌ rental API error: %v", err)
			utils.JSONRetryable(ctx, iris.StatusBadGateway, "upstream_error", apiErr.Message)
			return
		}
		utils.CreateError(apiErr.Status, "upstream_rejected", apiErr.Message, ctx)
	default:
		golog.Errorf("❌ %s %s: %v", ctx.Method(), ctx.Path(), err)
		utils.CreateInternalServerError(ctx)
	}
}

// readJSON decodes an optional JSON body without running the app validator;
// the services validate with their own messages and only after step checks.
func readJSON(ctx iris.Context, v interface{}) error {
	body, err := ctx.GetBody()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}
