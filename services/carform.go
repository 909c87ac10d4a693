package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"sync"

	"car-rental-storefront/models"
	"car-rental-storefront/storage"
	"car-rental-storefront/utils"

	"github.com/kataras/golog"
	"golang.org/x/exp/slices"
)

// CarFormAPI is the part of the rental API behind the admin console.
type CarFormAPI interface {
	ListCars(ctx context.Context, window *models.JourneyDetails) ([]models.Car, error)
	GetCar(ctx context.Context, id uint) (models.Car, error)
	Categories(ctx context.Context) ([]models.Category, error)
	RateTypes(ctx context.Context) ([]models.RateTypeOption, error)
	Amenities(ctx context.Context) ([]models.Amenity, error)
	UploadCarImage(ctx context.Context, img ImageFile) (string, error)
	AddCar(ctx context.Context, body *bytes.Buffer, contentType string) (json.RawMessage, error)
	UpdateCar(ctx context.Context, id uint, body *bytes.Buffer, contentType string) (json.RawMessage, error)
	DeleteCar(ctx context.Context, id uint) error
	ToggleActive(ctx context.Context, id uint, active bool) error
}

type CarForm struct {
	api       CarFormAPI
	events    EventPublisher
	policy    PricePolicy
	imageBase string
}

func NewCarForm(api CarFormAPI, events EventPublisher, policy PricePolicy, imageBase string) *CarForm {
	if events == nil {
		events = NopPublisher{}
	}
	return &CarForm{api: api, events: events, policy: policy, imageBase: imageBase}
}

// Reference data sources, as reported in ReferenceData.Degraded.
const (
	SourceCategories = "categories"
	SourceRateTypes  = "rate_types"
	SourceAmenities  = "amenities"
)

// ReferenceData holds the form's vocabularies. A source that failed to load
// is replaced by its built-in default and named in Degraded.
type ReferenceData struct {
	Categories []models.Category       `json:"categories"`
	RateTypes  []models.RateTypeOption `json:"rate_types"`
	Amenities  []models.Amenity        `json:"amenities"`
	Degraded   []string                `json:"degraded"`
}

func (r ReferenceData) IsDegraded(source string) bool {
	return slices.Contains(r.Degraded, source)
}

// LoadReferenceData fetches the three vocabularies concurrently. It never fails.
func (f *CarForm) LoadReferenceData(ctx context.Context) ReferenceData {
	return f.loadReferenceData(ctx, nil)
}

// loadReferenceData calls onAmenities as soon as the amenity vocabulary has
// loaded successfully.
func (f *CarForm) loadReferenceData(ctx context.Context, onAmenities func([]models.Amenity)) ReferenceData {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ref ReferenceData
	)
	degrade := func(source string, err error) {
		golog.Warnf("⚠️  %s unavailable, using defaults: %v", source, err)
		mu.Lock()
		ref.Degraded = append(ref.Degraded, source)
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		cats, err := f.api.Categories(ctx)
		if err != nil {
			degrade(SourceCategories, err)
			cats = append([]models.Category(nil), models.DefaultCategories...)
		}
		mu.Lock()
		ref.Categories = cats
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		types, err := f.api.RateTypes(ctx)
		if err != nil {
			degrade(SourceRateTypes, err)
			types = models.DefaultRateTypeOptions()
		}
		mu.Lock()
		ref.RateTypes = types
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		amenities, err := f.api.Amenities(ctx)
		if err != nil {
			degrade(SourceAmenities, err)
			amenities = []models.Amenity{}
		} else if onAmenities != nil {
			onAmenities(amenities)
		}
		mu.Lock()
		ref.Amenities = amenities
		mu.Unlock()
	}()
	wg.Wait()

	if ref.Categories == nil {
		ref.Categories = []models.Category{}
	}
	if ref.RateTypes == nil {
		ref.RateTypes = []models.RateTypeOption{}
	}
	if ref.Amenities == nil {
		ref.Amenities = []models.Amenity{}
	}
	if ref.Degraded == nil {
		ref.Degraded = []string{}
	}
	slices.Sort(ref.Degraded)
	return ref
}

// CarFormValues is the state of the admin car form.
type CarFormValues struct {
	Name                 string              `json:"car_name"`
	Model                string              `json:"car_model"`
	CategoryID           int                 `json:"car_category"`
	IsActive             bool                `json:"is_active"`
	NoOfSeats            int                 `json:"no_of_seats"`
	PriceDetails         []models.PriceEntry `json:"price_details"`
	DiscountPriceDetails []models.PriceEntry `json:"discount_price_details"`
	AmenityIDs           []int               `json:"amenities"`
	// ExistingImage is the image reference the car already has, if any.
	ExistingImage string `json:"existing_image,omitempty"`
}

// DefaultFormValues is the blank create form.
func DefaultFormValues() CarFormValues {
	return CarFormValues{
		IsActive:             true,
		NoOfSeats:            models.DefaultSeats,
		PriceDetails:         defaultPriceDetails(),
		DiscountPriceDetails: defaultDiscountDetails(),
		AmenityIDs:           []int{},
	}
}

func defaultPriceDetails() []models.PriceEntry {
	return []models.PriceEntry{
		{PriceType: models.RateDay, MinHours: 24},
		{PriceType: models.RateWeek, MinHours: 168},
	}
}

func defaultDiscountDetails() []models.PriceEntry {
	return []models.PriceEntry{
		{PriceType: models.RateDay},
		{PriceType: models.RateWeek},
	}
}

// EditSession merges a loaded car and the amenity vocabulary. They may
// arrive in either order; the amenity ids are re-derived from the car's raw
// references on every arrival so the result does not depend on that order.
type EditSession struct {
	mu         sync.Mutex
	car        *models.Car
	vocabulary []models.Amenity
	haveVocab  bool
	values     CarFormValues
}

func NewEditSession() *EditSession {
	return &EditSession{values: DefaultFormValues()}
}

func (s *EditSession) ApplyCar(car models.Car) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.car = &car

	v := DefaultFormValues()
	v.Name = car.Name
	v.Model = car.Model
	v.CategoryID = int(car.CategoryID)
	if v.CategoryID == 0 && car.Category != nil {
		v.CategoryID = car.Category.ID
	}
	v.IsActive = bool(car.IsActive)
	v.NoOfSeats = car.Seats()
	if len(car.PriceDetails) > 0 {
		v.PriceDetails = car.PriceDetails
	}
	if len(car.DiscountPriceDetails) > 0 {
		v.DiscountPriceDetails = car.DiscountPriceDetails
	}
	v.ExistingImage = car.ImageURL
	s.values = v
	s.reconcile()
}

func (s *EditSession) ApplyVocabulary(vocabulary []models.Amenity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocabulary = vocabulary
	s.haveVocab = true
	s.reconcile()
}

// reconcile must be called with mu held.
func (s *EditSession) reconcile() {
	if s.car == nil {
		return
	}
	refs := s.car.Amenities
	if s.haveVocab {
		refs = refs.FilterKnown(s.vocabulary)
	}
	s.values.AmenityIDs = refs.IDs()
}

func (s *EditSession) Values() CarFormValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values
	v.AmenityIDs = append([]int{}, s.values.AmenityIDs...)
	return v
}

// EditForm is everything the edit view needs.
type EditForm struct {
	ID               uint          `json:"id"`
	Values           CarFormValues `json:"values"`
	ExistingImageURL string        `json:"existing_image_url,omitempty"`
	Reference        ReferenceData `json:"reference"`
}

// LoadExistingCar fetches the car and the reference data concurrently.
func (f *CarForm) LoadExistingCar(ctx context.Context, id uint) (EditForm, error) {
	session := NewEditSession()

	var (
		wg     sync.WaitGroup
		ref    ReferenceData
		carErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ref = f.loadReferenceData(ctx, session.ApplyVocabulary)
	}()
	go func() {
		defer wg.Done()
		car, err := f.api.GetCar(ctx, id)
		if err != nil {
			carErr = err
			return
		}
		session.ApplyCar(car)
	}()
	wg.Wait()

	if carErr != nil {
		return EditForm{}, fmt.Errorf("load car %d: %w", id, carErr)
	}
	values := session.Values()
	return EditForm{
		ID:               id,
		Values:           values,
		ExistingImageURL: storage.ResolveImageURL(f.imageBase, values.ExistingImage),
		Reference:        ref,
	}, nil
}

// ImageFile is a selected image file.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type ImageMode string

const (
	// ImageUploaded: the server stored the file; only its name is sent.
	ImageUploaded ImageMode = "uploaded"
	// ImageDirect: the raw bytes ride along with the create/update request.
	ImageDirect ImageMode = "direct"
)

// ImageAttachment is the outcome of selecting an image.
type ImageAttachment struct {
	Mode     ImageMode  `json:"mode"`
	Filename string     `json:"filename"`
	Notice   string     `json:"notice,omitempty"`
	File     *ImageFile `json:"-"`
}

// ImageRejectedError is a file refused before any network call.
type ImageRejectedError struct{ Err error }

func (e *ImageRejectedError) Error() string { return e.Err.Error() }
func (e *ImageRejectedError) Unwrap() error { return e.Err }

// SelectImage runs the image upload fallback protocol: try the dedicated
// upload endpoint, and fall back to direct attachment when it is missing
// (404/405) or fails.
func (f *CarForm) SelectImage(ctx context.Context, img ImageFile) (ImageAttachment, error) {
	if err := storage.ValidateImage(img.ContentType, int64(len(img.Data))); err != nil {
		return ImageAttachment{}, &ImageRejectedError{Err: err}
	}

	direct := ImageAttachment{Mode: ImageDirect, Filename: img.Name, File: &img}
	name, err := f.api.UploadCarImage(ctx, img)
	switch {
	case err != nil && IsEndpointMissing(err):
		golog.Info("upload endpoint not available, image will be sent with the car")
		return direct, nil
	case err != nil:
		golog.Warnf("❌ image upload failed: %v", err)
		direct.Notice = err.Error() + ". The image will be sent directly with the car."
		return direct, nil
	case name == "":
		return direct, nil
	}
	return ImageAttachment{Mode: ImageUploaded, Filename: name}, nil
}

// Validate checks the required fields. An image is required unless the car
// already has one.
func (f *CarForm) Validate(v CarFormValues, img *ImageAttachment) utils.FieldErrors {
	errs := utils.FieldErrors{}
	if strings.TrimSpace(v.Name) == "" {
		errs["car_name"] = "Car name is required"
	}
	if strings.TrimSpace(v.Model) == "" {
		errs["car_model"] = "Car model is required"
	}
	if v.CategoryID <= 0 {
		errs["car_category"] = "Car category is required"
	}
	hasNew := img != nil && (img.Filename != "" || img.File != nil)
	if !hasNew && strings.TrimSpace(v.ExistingImage) == "" {
		errs["car_image"] = "Please select a car image"
	}
	return errs
}

// BuildCarMultipart encodes the form the way the rental API expects it.
// Exactly one image representation is sent: the raw file for a direct
// attachment, otherwise car_image_url.
func BuildCarMultipart(v CarFormValues, img *ImageAttachment) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"car_name", strings.TrimSpace(v.Name)},
		{"car_model", strings.TrimSpace(v.Model)},
		{"car_category", strconv.Itoa(v.CategoryID)},
		{"is_active", boolFlag(v.IsActive)},
	}
	seats := v.NoOfSeats
	if seats <= 0 {
		seats = models.DefaultSeats
	}
	fields = append(fields, [2]string{"additional_details[no_of_seats]", strconv.Itoa(seats)})

	for i, p := range v.PriceDetails {
		prefix := fmt.Sprintf("price_details[%d]", i)
		fields = append(fields,
			[2]string{prefix + "[price_type]", string(p.PriceType.Normalize())},
			[2]string{prefix + "[min_hours]", strconv.Itoa(int(p.MinHours))},
			[2]string{prefix + "[price]", fmt.Sprintf("%.2f", float64(p.Price))},
		)
	}
	for i, p := range v.DiscountPriceDetails {
		prefix := fmt.Sprintf("discount_price_details[%d]", i)
		fields = append(fields,
			[2]string{prefix + "[price_type]", string(p.PriceType.Normalize())},
			[2]string{prefix + "[price]", fmt.Sprintf("%.2f", float64(p.Price))},
		)
	}
	for i, id := range v.AmenityIDs {
		fields = append(fields, [2]string{fmt.Sprintf("amenities[%d]", i), strconv.Itoa(id)})
	}

	switch {
	case img != nil && img.Mode == ImageDirect && img.File != nil:
		if err := writeFilePart(w, "car_image", *img.File); err != nil {
			return nil, "", err
		}
	case img != nil && img.Mode == ImageUploaded && img.Filename != "":
		fields = append(fields, [2]string{"car_image_url", img.Filename})
	case strings.TrimSpace(v.ExistingImage) != "":
		fields = append(fields, [2]string{"car_image_url", strings.TrimSpace(v.ExistingImage)})
	}

	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SubmitResult tells the client where to go once the confirmation is shown.
type SubmitResult struct {
	Message         string          `json:"message"`
	Redirect        string          `json:"redirect"`
	RedirectAfterMs int             `json:"redirect_after_ms"`
	Data            json.RawMessage `json:"data,omitempty"`
}

const (
	carListPath   = "/admin/car/list"
	redirectDelay = 1500
)

// Create validates and submits a new car.
func (f *CarForm) Create(ctx context.Context, v CarFormValues, img *ImageAttachment) (SubmitResult, error) {
	if errs := f.Validate(v, img); len(errs) > 0 {
		return SubmitResult{}, errs
	}
	body, contentType, err := BuildCarMultipart(v, img)
	if err != nil {
		return SubmitResult{}, err
	}
	data, err := f.api.AddCar(ctx, body, contentType)
	if err != nil {
		return SubmitResult{}, err
	}
	golog.Infof("🚘 car %q added", v.Name)
	publish(ctx, f.events, EventCarCreated, map[string]interface{}{"car_name": v.Name, "car_model": v.Model})
	return SubmitResult{Message: "Car added successfully!", Redirect: carListPath, RedirectAfterMs: redirectDelay, Data: nullToEmpty(data)}, nil
}

// Update validates and submits changes to an existing car.
func (f *CarForm) Update(ctx context.Context, id uint, v CarFormValues, img *ImageAttachment) (SubmitResult, error) {
	if errs := f.Validate(v, img); len(errs) > 0 {
		return SubmitResult{}, errs
	}
	body, contentType, err := BuildCarMultipart(v, img)
	if err != nil {
		return SubmitResult{}, err
	}
	data, err := f.api.UpdateCar(ctx, id, body, contentType)
	if err != nil {
		return SubmitResult{}, err
	}
	golog.Infof("🚘 car %d updated", id)
	publish(ctx, f.events, EventCarUpdated, map[string]interface{}{"car_id": id, "car_name": v.Name})
	return SubmitResult{Message: "Car updated successfully!", Redirect: carListPath, RedirectAfterMs: redirectDelay, Data: nullToEmpty(data)}, nil
}

func nullToEmpty(raw json.RawMessage) json.RawMessage {
	if isNull(raw) {
		return nil
	}
	return raw
}

// AdminCarRow is one line of the admin car list.
type AdminCarRow struct {
	CarCard
	CategoryID int `json:"categoryId"`
}

func (f *CarForm) ListCars(ctx context.Context) ([]AdminCarRow, error) {
	cars, err := f.api.ListCars(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	rows := make([]AdminCarRow, 0, len(cars))
	for _, car := range cars {
		rows = append(rows, AdminCarRow{
			CarCard:    newCarCard(car, f.policy, f.imageBase),
			CategoryID: int(car.CategoryID),
		})
	}
	return rows, nil
}

// Car returns the current state of one car, used for audit snapshots.
func (f *CarForm) Car(ctx context.Context, id uint) (*models.Car, error) {
	car, err := f.api.GetCar(ctx, id)
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func (f *CarForm) Delete(ctx context.Context, id uint) error {
	if err := f.api.DeleteCar(ctx, id); err != nil {
		return fmt.Errorf("delete car %d: %w", id, err)
	}
	publish(ctx, f.events, EventCarDeleted, map[string]interface{}{"car_id": id})
	return nil
}

func (f *CarForm) SetActive(ctx context.Context, id uint, active bool) error {
	if err := f.api.ToggleActive(ctx, id, active); err != nil {
		return fmt.Errorf("toggle car %d: %w", id, err)
	}
	publish(ctx, f.events, EventCarActiveToggled, map[string]interface{}{"car_id": id, "is_active": active})
	return nil
}
