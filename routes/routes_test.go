package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"car-rental-storefront/models"
	"car-rental-storefront/services"
	"car-rental-storefront/storage"
	"car-rental-storefront/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"
)

const testCars = `{"success":true,"data":[
	{"id":1,"car_name":"Swift","car_model":"VXI","is_active":1,"no_of_seats":5,"amenities":"1,2","rating":4.2,
	 "car_image_url":"swift.png","price_details":[{"price_type":"day","min_hours":24,"price":"1500.00"}],
	 "discount_price_details":[{"price_type":"day","price":"1200.00"}]},
	{"id":2,"car_name":"Innova","car_model":"Crysta","is_active":1,"no_of_seats":7,"amenities":[1],"rating":4.8,
	 "car_image_url":"innova.png","price_details":[{"price_type":"day","price":"900.00"}]},
	{"id":3,"car_name":"City","car_model":"ZX","is_active":0,"no_of_seats":5,"amenities":[],"rating":4.5,
	 "price_details":[]}
]}`

// upstream records what the storefront sent to the fake rental API.
type upstream struct {
	mu       sync.Mutex
	requests map[string][]byte
}

func (u *upstream) record(key string, body []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.requests[key] = body
}

func (u *upstream) get(key string) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests[key]
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func carByID(body string, id string) string {
	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	_ = json.Unmarshal([]byte(body), &env)
	for _, raw := range env.Data {
		var c struct {
			ID json.Number `json:"id"`
		}
		_ = json.Unmarshal(raw, &c)
		if c.ID.String() == id {
			return `{"success":true,"data":` + string(raw) + `}`
		}
	}
	return ""
}

// buildTestApp wires the storefront against a fake rental API, miniredis and
// a throwaway sqlite audit database.
func buildTestApp(t *testing.T, overrides map[string]http.HandlerFunc) (*iris.Application, *upstream) {
	t.Helper()
	up := &upstream{requests: map[string][]byte{}}

	handlers := map[string]http.HandlerFunc{
		"GET /api/cars/list": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, testCars)
		},
		"GET /api/admin/car/{id}": func(w http.ResponseWriter, r *http.Request) {
			body := carByID(testCars, r.PathValue("id"))
			if body == "" {
				writeJSON(w, http.StatusNotFound, `{"message":"Car not found"}`)
				return
			}
			writeJSON(w, http.StatusOK, body)
		},
		"POST /api/customer/add": func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			up.record("customer", b)
			writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":42}}`)
		},
		"POST /api/booking/add": func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			up.record("booking", b)
			writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":501}}`)
		},
		"PATCH /api/admin/car/{id}/toggle-active": func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			up.record("toggle", b)
			writeJSON(w, http.StatusOK, `{"success":true}`)
		},
		"POST /api/admin/car/add": func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseMultipartForm(1 << 20)
			b, _ := json.Marshal(r.MultipartForm.Value)
			up.record("add", b)
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":9}}`)
		},
		"DELETE /api/admin/car/delete/{id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"success":true}`)
		},
	}
	for k, h := range overrides {
		handlers[k] = h
	}
	mux := http.NewServeMux()
	for pattern, h := range handlers {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := storage.OpenDB("sqlite", filepath.Join(t.TempDir(), "audit.db"), true)
	if err != nil {
		t.Fatalf("open audit db: %v", err)
	}
	storage.DB = db
	t.Cleanup(func() { storage.DB = nil })

	api := services.NewRentalAPI(srv.URL, 5*time.Second)
	wizard := services.NewBookingWizard(api, storage.NewRedisSessionStore(client, ""), nil, time.Hour)

	app := iris.New()
	app.Logger().SetLevel("disable")
	app.Validator = utils.Validator()
	Mount(app, &Handlers{
		Catalog: services.NewCatalog(api, wizard, services.PolicyPriority, srv.URL),
		Wizard:  wizard,
		CarForm: services.NewCarForm(api, nil, services.PolicyPriority, srv.URL),
	})
	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}
	return app, up
}

func do(app *iris.Application, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func doJSON(app *iris.Application, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return do(app, method, path, r, "application/json")
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	app, _ := buildTestApp(t, nil)
	if resp := do(app, http.MethodGet, "/health", nil, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestStorefrontListCarsFilterAndSort(t *testing.T) {
	app, _ := buildTestApp(t, nil)

	resp := do(app, http.MethodGet, "/api/storefront/cars?sort=cheapest&amenities=1", nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Data []services.CarCard `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 2 || body.Data[0].ID != 2 || body.Data[1].ID != 1 {
		t.Fatalf("expected cars [2 1], got %+v", body.Data)
	}

	resp = do(app, http.MethodGet, "/api/storefront/cars?sort=rating&seats=5", nil, "")
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 2 || body.Data[0].ID != 3 || body.Data[1].ID != 1 {
		t.Fatalf("expected cars [3 1], got %+v", body.Data)
	}
}

func TestStorefrontUpstreamFailureIsRetryable(t *testing.T) {
	app, _ := buildTestApp(t, map[string]http.HandlerFunc{
		"GET /api/cars/list": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "boom")
		},
	})

	resp := do(app, http.MethodGet, "/api/storefront/cars", nil, "")
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	body := decode(t, resp)
	if body["retryable"] != true || body["error"] != "upstream_error" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCarPrices(t *testing.T) {
	app, _ := buildTestApp(t, nil)

	resp := do(app, http.MethodGet, "/api/storefront/cars/1/prices", nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp = do(app, http.MethodGet, "/api/storefront/cars/77/prices", nil, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected upstream 404 to pass through, got %d", resp.Code)
	}
}

func TestBookingFlow(t *testing.T) {
	app, up := buildTestApp(t, nil)

	resp := doJSON(app, http.MethodPost, "/api/storefront/cars/1/book",
		`{"pickup_location":"Airport","journey_from_date":"2099-01-10","journey_end_date":"2099-01-12"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var started struct {
		Data services.WizardState `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &started); err != nil {
		t.Fatal(err)
	}
	id := started.Data.ID
	if started.Data.Step != services.StepCollectingCustomer || started.Data.Context.Car.ID != 1 {
		t.Fatalf("unexpected session %+v", started.Data)
	}
	base := "/api/booking/session/" + id

	// step two is not reachable yet
	if resp = doJSON(app, http.MethodPost, base+"/journey", `{}`); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}

	resp = doJSON(app, http.MethodPost, base+"/customer", `{"first_name":"Asha","last_name":"Rao","phone_no":"12345"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	errs, _ := decode(t, resp)["errors"].(map[string]interface{})
	if errs["phone_no"] != "Phone number must be 10-15 digits" {
		t.Fatalf("unexpected errors %v", errs)
	}
	if up.get("customer") != nil {
		t.Fatal("customer request must not be sent while invalid")
	}

	resp = doJSON(app, http.MethodPost, base+"/customer", `{"first_name":"Asha","last_name":"Rao","phone_no":"9876543210","pan_no":"abcde1234f","is_prime_user":"1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var customer models.CustomerPayload
	_ = json.Unmarshal(up.get("customer"), &customer)
	if customer.CarID != 1 || customer.PANNo == nil || *customer.PANNo != "ABCDE1234F" || customer.IsPrimeUser != 1 {
		t.Fatalf("unexpected customer payload %s", up.get("customer"))
	}

	resp = doJSON(app, http.MethodPost, base+"/journey", `{"pickup_location":" Airport ","journey_from_date":"2099-01-10","journey_end_date":"2099-01-12"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var booking models.BookingPayload
	_ = json.Unmarshal(up.get("booking"), &booking)
	if booking.CustomerID != 42 || booking.CarID != 1 || booking.PickupLocation != "Airport" || booking.Status != "pending" {
		t.Fatalf("unexpected booking payload %s", up.get("booking"))
	}

	resp = do(app, http.MethodGet, base+"/receipt", nil, "")
	if resp.Code != http.StatusOK || !strings.HasPrefix(resp.Header().Get("Content-Type"), "application/pdf") {
		t.Fatalf("expected pdf receipt, got %d %q", resp.Code, resp.Header().Get("Content-Type"))
	}

	resp = do(app, http.MethodGet, "/api/admin/activity?resource_type=booking", nil, "")
	meta, _ := decode(t, resp)["meta"].(map[string]interface{})
	if meta["total"] != float64(1) {
		t.Fatalf("expected one booking audit entry, got %v", meta)
	}

	if resp = do(app, http.MethodDelete, base, nil, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp = do(app, http.MethodGet, base, nil, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after discard, got %d", resp.Code)
	}
}

func TestStartBookingRequiresCar(t *testing.T) {
	app, _ := buildTestApp(t, nil)

	resp := doJSON(app, http.MethodPost, "/api/booking/session", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if decode(t, resp)["error"] != "car_required" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAdminToggleActive(t *testing.T) {
	app, up := buildTestApp(t, nil)

	if resp := doJSON(app, http.MethodPatch, "/api/admin/cars/3/active", `{}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without is_active, got %d", resp.Code)
	}

	resp := doJSON(app, http.MethodPatch, "/api/admin/cars/3/active", `{"is_active":true}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := string(up.get("toggle")); !strings.Contains(got, `"is_active":1`) {
		t.Fatalf("unexpected upstream body %s", got)
	}
}

func TestAdminCreateCar(t *testing.T) {
	app, up := buildTestApp(t, nil)

	resp := doJSON(app, http.MethodPost, "/api/admin/cars", `{"car":{"car_name":""}}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	errs, _ := decode(t, resp)["errors"].(map[string]interface{})
	if errs["car_image"] != "Please select a car image" || errs["car_name"] != "Car name is required" {
		t.Fatalf("unexpected errors %v", errs)
	}

	resp = doJSON(app, http.MethodPost, "/api/admin/cars",
		`{"car":{"car_name":"Creta","car_model":"SX","car_category":3,"is_active":true,"no_of_seats":5,
		"price_details":[{"price_type":"day","min_hours":24,"price":2500}],"amenities":[1]},"uploaded_image":"creta.png"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var sent map[string][]string
	_ = json.Unmarshal(up.get("add"), &sent)
	if len(sent["car_image_url"]) != 1 || sent["car_image_url"][0] != "creta.png" || sent["price_details[0][price]"][0] != "2500.00" {
		t.Fatalf("unexpected upstream form %v", sent)
	}
	data, _ := decode(t, resp)["data"].(map[string]interface{})
	if data["redirect"] != "/admin/car/list" {
		t.Fatalf("unexpected result %v", data)
	}
}

func TestAdminSelectImageRejectsNonImage(t *testing.T) {
	app, _ := buildTestApp(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("car_image", "notes.txt")
	_, _ = part.Write([]byte("plain text, not an image"))
	_ = w.Close()

	resp := do(app, http.MethodPost, "/api/admin/cars/image", &buf, w.FormDataContentType())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if decode(t, resp)["error"] != "image_rejected" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAdminDeleteCarPassesThroughRejection(t *testing.T) {
	app, _ := buildTestApp(t, map[string]http.HandlerFunc{
		"DELETE /api/admin/car/delete/{id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, `{"message":"Car has active bookings"}`)
		},
	})

	resp := do(app, http.MethodDelete, "/api/admin/cars/1", nil, "")
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	body := decode(t, resp)
	if body["error"] != "upstream_rejected" || body["message"] != "Car has active bookings" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestStorefrontFilters(t *testing.T) {
	app, _ := buildTestApp(t, map[string]http.HandlerFunc{
		"GET /api/amenities": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id":1,"name":"AC"},{"id":2,"name":"GPS"}]`)
		},
	})

	resp := do(app, http.MethodGet, "/api/storefront/filters", nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Data struct {
			Amenities []models.Amenity `json:"amenities"`
			Seats     []int            `json:"seats"`
		} `json:"data"`
		Degraded []string `json:"degraded"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data.Amenities) != 2 || len(body.Data.Seats) != 2 || body.Data.Seats[0] != 5 || body.Data.Seats[1] != 7 {
		t.Fatalf("unexpected filters %+v", body.Data)
	}
	// categories and rate types are not served by the fake API
	if len(body.Degraded) != 2 {
		t.Fatalf("expected two degraded vocabularies, got %v", body.Degraded)
	}
}
