package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
)

// HandleValidationErrors answers a failed ReadJSON or service validation with
// 400 and the field-keyed message map.
func HandleValidationErrors(err error, ctx iris.Context) {
	var fieldErrs FieldErrors
	if errors.As(err, &fieldErrs) {
		JSONValidationErrors(ctx, fieldErrs)
		return
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		JSONValidationErrors(ctx, TranslateValidationErrors(errs))
		return
	}
	golog.Debugf("invalid payload: %v", err)
	JSONError(ctx, iris.StatusBadRequest, "invalid_payload", "Request body could not be read")
}

func JSONValidationErrors(ctx iris.Context, errs FieldErrors) {
	ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
		"error":  "validation_failed",
		"errors": errs,
	})
}

func CreateError(statusCode int, code, message string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{"error": code, "message": message})
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "not_found", "Not found", ctx)
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, "internal_error", "Internal server error", ctx)
}
