package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"car-rental-storefront/models"

	"github.com/kataras/golog"
)

// APIError is a non-success answer from the rental API.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string { return e.Message }

// TransportError means the rental API could not be reached or its body could
// not be read. The caller may retry by repeating the request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// IsEndpointMissing reports a 404 or 405, which optional endpoints use to say
// they are not deployed.
func IsEndpointMissing(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusMethodNotAllowed
	}
	return false
}

// IsRetryable reports failures that are worth repeating as-is.
func IsRetryable(err error) bool {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

// RentalAPI is the client of the remote car-rental API.
type RentalAPI struct {
	baseURL string
	http    *http.Client
}

func NewRentalAPI(baseURL string, timeout time.Duration) *RentalAPI {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RentalAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *RentalAPI) BaseURL() string { return a.baseURL }

type apiResponse struct {
	status int
	body   []byte
	isJSON bool
}

func (r apiResponse) ok() bool { return r.status >= 200 && r.status < 300 }

// asError turns a failed response into an *APIError using the server's message
// when the body is JSON and "Server error (<status>): <text>" when it is not.
func (r apiResponse) asError(fallback string) *APIError {
	if !r.isJSON {
		text := strings.TrimSpace(string(r.body))
		if text == "" {
			text = http.StatusText(r.status)
		}
		return &APIError{Status: r.status, Message: fmt.Sprintf("Server error (%d): %s", r.status, text), Body: string(r.body)}
	}
	return &APIError{Status: r.status, Message: ErrorMessage(r.body, fallback), Body: string(r.body)}
}

func (a *RentalAPI) do(ctx context.Context, method, path string, body io.Reader, contentType string) (apiResponse, error) {
	op := method + " " + path
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return apiResponse{}, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		golog.Warnf("❌ %s failed: %v", op, err)
		return apiResponse{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiResponse{}, &TransportError{Op: op, Err: err}
	}
	golog.Debugf("🔁 %s -> %d (%s)", op, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	return apiResponse{
		status: resp.StatusCode,
		body:   raw,
		isJSON: strings.Contains(resp.Header.Get("Content-Type"), "json"),
	}, nil
}

func (a *RentalAPI) getJSON(ctx context.Context, path, fallback string) ([]byte, error) {
	resp, err := a.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() || !resp.isJSON {
		return nil, resp.asError(fallback)
	}
	return resp.body, nil
}

func (a *RentalAPI) sendJSON(ctx context.Context, method, path string, payload interface{}) (apiResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, err
	}
	return a.do(ctx, method, path, bytes.NewReader(raw), "application/json")
}

// ListCars fetches the catalog, scoped to a journey window when both dates are known.
func (a *RentalAPI) ListCars(ctx context.Context, window *models.JourneyDetails) ([]models.Car, error) {
	path := "/api/cars/list"
	if window != nil && window.HasWindow() {
		q := url.Values{}
		q.Set("journey_start_date", strings.TrimSpace(window.JourneyFromDate))
		q.Set("journey_end_date", strings.TrimSpace(window.JourneyEndDate))
		path += "?" + q.Encode()
	}
	body, err := a.getJSON(ctx, path, "Failed to load cars")
	if err != nil {
		return nil, err
	}
	cars, err := decodeList[models.Car](body, "cars")
	if err != nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "Failed to load cars: " + err.Error(), Body: string(body)}
	}
	return cars, nil
}

func (a *RentalAPI) GetCar(ctx context.Context, id uint) (models.Car, error) {
	body, err := a.getJSON(ctx, "/api/admin/car/"+strconv.FormatUint(uint64(id), 10), "Failed to load car data")
	if err != nil {
		return models.Car{}, err
	}
	car, err := decodeCar(body)
	if err != nil {
		return models.Car{}, &APIError{Status: http.StatusBadGateway, Message: "Invalid car data format", Body: string(body)}
	}
	return car, nil
}

func (a *RentalAPI) Categories(ctx context.Context) ([]models.Category, error) {
	body, err := a.getJSON(ctx, "/api/admin/car/category", "Failed to load categories")
	if err != nil {
		return nil, err
	}
	return decodeList[models.Category](body, "categories")
}

func (a *RentalAPI) RateTypes(ctx context.Context) ([]models.RateTypeOption, error) {
	body, err := a.getJSON(ctx, "/api/price-type", "Failed to load price types")
	if err != nil {
		return nil, err
	}
	return decodeList[models.RateTypeOption](body, "price_types", "priceTypes", "types")
}

func (a *RentalAPI) Amenities(ctx context.Context) ([]models.Amenity, error) {
	body, err := a.getJSON(ctx, "/api/amenities", "Failed to load amenities")
	if err != nil {
		return nil, err
	}
	return decodeList[models.Amenity](body, "amenities")
}

// UploadCarImage posts the file alone as car_image. It returns the name the
// server stored the file under, or "" when the server accepted the file
// without naming it.
func (a *RentalAPI) UploadCarImage(ctx context.Context, img ImageFile) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeFilePart(w, "car_image", img); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	resp, err := a.do(ctx, http.MethodPost, "/api/admin/car/upload-image", &buf, w.FormDataContentType())
	if err != nil {
		return "", err
	}
	if !resp.ok() || !resp.isJSON || !successFlag(resp.body) {
		return "", resp.asError("Failed to upload image")
	}

	var out struct {
		Filename  string `json:"filename"`
		ImageName string `json:"image_name"`
	}
	_ = json.Unmarshal(resp.body, &out)
	return firstNonBlank(out.Filename, out.ImageName), nil
}

// submitCar posts a multipart car body; the API signals success with success=true.
func (a *RentalAPI) submitCar(ctx context.Context, path string, body *bytes.Buffer, contentType, fallback string) (json.RawMessage, error) {
	resp, err := a.do(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return nil, err
	}
	if !resp.ok() || !resp.isJSON || !successFlag(resp.body) {
		return nil, resp.asError(fallback)
	}
	var env envelope
	_ = json.Unmarshal(resp.body, &env)
	return env.Data, nil
}

func (a *RentalAPI) AddCar(ctx context.Context, body *bytes.Buffer, contentType string) (json.RawMessage, error) {
	return a.submitCar(ctx, "/api/admin/car/add", body, contentType, "Failed to add car")
}

func (a *RentalAPI) UpdateCar(ctx context.Context, id uint, body *bytes.Buffer, contentType string) (json.RawMessage, error) {
	return a.submitCar(ctx, "/api/admin/car/update/"+strconv.FormatUint(uint64(id), 10), body, contentType, "Failed to update car")
}

func (a *RentalAPI) DeleteCar(ctx context.Context, id uint) error {
	resp, err := a.do(ctx, http.MethodDelete, "/api/admin/car/delete/"+strconv.FormatUint(uint64(id), 10), nil, "")
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.asError("Failed to delete car")
	}
	return nil
}

func (a *RentalAPI) ToggleActive(ctx context.Context, id uint, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	resp, err := a.sendJSON(ctx, http.MethodPatch, "/api/admin/car/"+strconv.FormatUint(uint64(id), 10)+"/toggle-active", map[string]int{"is_active": flag})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.asError("Failed to update car status")
	}
	return nil
}

// ErrMissingCustomerID is returned when the API accepted a customer but did
// not say which id it was stored under.
var ErrMissingCustomerID = errors.New("customer created but no customer id was returned")

// AddCustomer creates the wizard's customer record and returns its id, read
// from data.id or customer_id.
func (a *RentalAPI) AddCustomer(ctx context.Context, payload models.CustomerPayload) (uint, error) {
	resp, err := a.sendJSON(ctx, http.MethodPost, "/api/customer/add", payload)
	if err != nil {
		return 0, err
	}
	if !resp.ok() {
		return 0, resp.asError("Failed to submit customer details")
	}
	var out struct {
		Data *struct {
			ID models.FlexInt `json:"id"`
		} `json:"data"`
		CustomerID models.FlexInt `json:"customer_id"`
	}
	if resp.isJSON {
		_ = json.Unmarshal(resp.body, &out)
	}
	if out.Data != nil && out.Data.ID > 0 {
		return uint(out.Data.ID), nil
	}
	if out.CustomerID > 0 {
		return uint(out.CustomerID), nil
	}
	return 0, ErrMissingCustomerID
}

// AddBooking creates the booking. A success answer without a JSON body is
// still a success; the returned id is 0 when the API did not report one.
func (a *RentalAPI) AddBooking(ctx context.Context, payload models.BookingPayload) (uint, error) {
	resp, err := a.sendJSON(ctx, http.MethodPost, "/api/booking/add", payload)
	if err != nil {
		return 0, err
	}
	if !resp.ok() {
		return 0, resp.asError("Failed to submit journey details")
	}
	var out struct {
		Data *struct {
			ID models.FlexInt `json:"id"`
		} `json:"data"`
		BookingID models.FlexInt `json:"booking_id"`
	}
	if resp.isJSON {
		_ = json.Unmarshal(resp.body, &out)
	}
	if out.Data != nil && out.Data.ID > 0 {
		return uint(out.Data.ID), nil
	}
	return uint(out.BookingID), nil
}

func writeFilePart(w *multipart.Writer, field string, img ImageFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, escapeQuotes(img.Name)))
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(img.Data)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
