package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"car-rental-storefront/services"
	"car-rental-storefront/storage"
	"car-rental-storefront/utils"

	"github.com/kataras/iris/v12"
)

// GET /api/admin/cars
func (h *Handlers) AdminListCars(ctx iris.Context) {
	rows, err := h.CarForm.ListCars(ctx.Request().Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONData(ctx, rows)
}

// GET /api/admin/cars/reference
func (h *Handlers) AdminCarReference(ctx iris.Context) {
	ref := h.CarForm.LoadReferenceData(ctx.Request().Context())
	ctx.JSON(iris.Map{
		"success":  true,
		"data":     ref,
		"defaults": services.DefaultFormValues(),
	})
}

// GET /api/admin/cars/{id}/form
func (h *Handlers) AdminCarForm(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		utils.CreateError(iris.StatusBadRequest, "invalid_id", "Invalid car ID", ctx)
		return
	}
	form, err := h.CarForm.LoadExistingCar(ctx.Request().Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONData(ctx, form)
}

// readImage returns the car_image file of a multipart request, or nil when
// none was sent. At most one byte past the limit is read so oversized files
// are still rejected by size.
func readImage(ctx iris.Context) (*services.ImageFile, error) {
	file, header, err := ctx.FormFile("car_image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	ct := header.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &services.ImageFile{Name: header.Filename, ContentType: ct, Data: data}, nil
}

// POST /api/admin/cars/image
func (h *Handlers) AdminSelectImage(ctx iris.Context) {
	img, err := readImage(ctx)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if img == nil {
		utils.JSONValidationErrors(ctx, utils.FieldErrors{"car_image": "Please select a car image"})
		return
	}
	att, err := h.CarForm.SelectImage(ctx.Request().Context(), *img)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONData(ctx, att)
}

type carFormRequest struct {
	Car           services.CarFormValues `json:"car"`
	UploadedImage string                 `json:"uploaded_image"`
}

// readCarForm accepts either a JSON body {car, uploaded_image} or a
// multipart body with the same fields plus an optional car_image file. A file
// goes through the upload fallback unless image_mode=direct says the client
// already knows the upload endpoint is missing.
func (h *Handlers) readCarForm(ctx iris.Context) (services.CarFormValues, *services.ImageAttachment, error) {
	var req carFormRequest
	if strings.HasPrefix(ctx.GetContentTypeRequested(), "multipart/") {
		if raw := ctx.FormValue("car"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Car); err != nil {
				return req.Car, nil, err
			}
		}
		req.UploadedImage = strings.TrimSpace(ctx.FormValue("uploaded_image"))
		if req.UploadedImage == "" {
			img, err := readImage(ctx)
			if err != nil || img == nil {
				return req.Car, nil, err
			}
			if ctx.FormValue("image_mode") == string(services.ImageDirect) {
				if err := storage.ValidateImage(img.ContentType, int64(len(img.Data))); err != nil {
					return req.Car, nil, &services.ImageRejectedError{Err: err}
				}
				return req.Car, &services.ImageAttachment{Mode: services.ImageDirect, Filename: img.Name, File: img}, nil
			}
			att, err := h.CarForm.SelectImage(ctx.Request().Context(), *img)
			if err != nil {
				return req.Car, nil, err
			}
			return req.Car, &att, nil
		}
	} else if err := readJSON(ctx, &req); err != nil {
		return req.Car, nil, err
	}

	if req.UploadedImage != "" {
		return req.Car, &services.ImageAttachment{Mode: services.ImageUploaded, Filename: req.UploadedImage}, nil
	}
	return req.Car, nil, nil
}

func submitResponse(ctx iris.Context, status int, res services.SubmitResult, att *services.ImageAttachment) {
	body := iris.Map{"success": true, "data": res}
	if att != nil && att.Notice != "" {
		body["notice"] = att.Notice
	}
	ctx.StatusCode(status)
	ctx.JSON(body)
}

// POST /api/admin/cars
func (h *Handlers) AdminCreateCar(ctx iris.Context) {
	values, att, err := h.readCarForm(ctx)
	if err != nil {
		var rejected *services.ImageRejectedError
		if errors.As(err, &rejected) {
			respondError(ctx, err)
			return
		}
		utils.HandleValidationErrors(err, ctx)
		return
	}
	res, err := h.CarForm.Create(ctx.Request().Context(), values, att)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Audit(ctx, "car.created", "car", 0, nil, values)
	submitResponse(ctx, iris.StatusCreated, res, att)
}

// POST /api/admin/cars/{id}
func (h *Handlers) AdminUpdateCar(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		utils.CreateError(iris.StatusBadRequest, "invalid_id", "Invalid car ID", ctx)
		return
	}
	values, att, err := h.readCarForm(ctx)
	if err != nil {
		var rejected *services.ImageRejectedError
		if errors.As(err, &rejected) {
			respondError(ctx, err)
			return
		}
		utils.HandleValidationErrors(err, ctx)
		return
	}
	before, _ := h.CarForm.Car(ctx.Request().Context(), id)
	res, err := h.CarForm.Update(ctx.Request().Context(), id, values, att)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Audit(ctx, "car.updated", "car", id, before, values)
	submitResponse(ctx, iris.StatusOK, res, att)
}

// DELETE /api/admin/cars/{id}
func (h *Handlers) AdminDeleteCar(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		utils.CreateError(iris.StatusBadRequest, "invalid_id", "Invalid car ID", ctx)
		return
	}
	before, _ := h.CarForm.Car(ctx.Request().Context(), id)
	if err := h.CarForm.Delete(ctx.Request().Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Audit(ctx, "car.deleted", "car", id, before, nil)
	ctx.JSON(iris.Map{"success": true, "message": "Car deleted successfully"})
}

type toggleActiveInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// PATCH /api/admin/cars/{id}/active
func (h *Handlers) AdminToggleActive(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		utils.CreateError(iris.StatusBadRequest, "invalid_id", "Invalid car ID", ctx)
		return
	}
	var in toggleActiveInput
	if err := ctx.ReadJSON(&in); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if err := h.CarForm.SetActive(ctx.Request().Context(), id, *in.IsActive); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Audit(ctx, "car.active_toggled", "car", id, nil, iris.Map{"is_active": *in.IsActive})
	ctx.JSON(iris.Map{"success": true, "data": iris.Map{"id": id, "is_active": *in.IsActive}})
}
