package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"car-rental-storefront/models"
	"car-rental-storefront/storage"
	"car-rental-storefront/utils"

	"github.com/google/uuid"
	"github.com/kataras/golog"
)

type WizardStep string

const (
	StepCollectingCustomer WizardStep = "collecting_customer"
	StepCollectingJourney  WizardStep = "collecting_journey"
	StepCompleted          WizardStep = "completed"
)

var (
	ErrInvalidStep        = errors.New("operation not allowed in the current booking step")
	ErrSubmissionInFlight = errors.New("a submission for this booking is already in progress")
	ErrSessionNotFound    = errors.New("booking session not found or expired")
	ErrNoCarSelected      = errors.New("a car must be selected to start a booking")
)

// WizardContext is what the catalog hands to the wizard: the chosen car and
// any journey details from the originating search. It is read once at start.
type WizardContext struct {
	Car     models.CarSummary     `json:"car"`
	Journey models.JourneyDetails `json:"journey"`
}

// WizardState is one booking session.
type WizardState struct {
	ID          string                `json:"id"`
	Step        WizardStep            `json:"step"`
	Context     WizardContext         `json:"context"`
	Customer    *models.CustomerInput `json:"customer,omitempty"`
	CustomerID  uint                  `json:"customerId,omitempty"`
	Journey     models.JourneyDetails `json:"journey"`
	BookingID   uint                  `json:"bookingId,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
}

// BookingAPI is the part of the rental API the wizard talks to.
type BookingAPI interface {
	AddCustomer(ctx context.Context, payload models.CustomerPayload) (uint, error)
	AddBooking(ctx context.Context, payload models.BookingPayload) (uint, error)
}

type BookingWizard struct {
	api     BookingAPI
	store   storage.SessionStore
	events  EventPublisher
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

func NewBookingWizard(api BookingAPI, store storage.SessionStore, events EventPublisher, ttl time.Duration) *BookingWizard {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &BookingWizard{
		api:     api,
		store:   store,
		events:  events,
		ttl:     ttl,
		lockTTL: 30 * time.Second,
		now:     time.Now,
	}
}

func trimJourney(j models.JourneyDetails) models.JourneyDetails {
	return models.JourneyDetails{
		PickupLocation:  strings.TrimSpace(j.PickupLocation),
		DropLocation:    strings.TrimSpace(j.DropLocation),
		JourneyFromDate: strings.TrimSpace(j.JourneyFromDate),
		JourneyEndDate:  strings.TrimSpace(j.JourneyEndDate),
	}
}

// Start opens a session in collecting_customer with the journey pre-filled
// from the carried context.
func (w *BookingWizard) Start(ctx context.Context, wc WizardContext) (*WizardState, error) {
	if wc.Car.ID == 0 {
		return nil, ErrNoCarSelected
	}
	wc.Journey = trimJourney(wc.Journey)
	now := w.now()
	state := &WizardState{
		ID:        uuid.NewString(),
		Step:      StepCollectingCustomer,
		Context:   wc,
		Journey:   wc.Journey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.save(ctx, state); err != nil {
		return nil, err
	}
	golog.Infof("🚗 booking session %s started for car %d", state.ID, wc.Car.ID)
	return state, nil
}

func (w *BookingWizard) Get(ctx context.Context, id string) (*WizardState, error) {
	var state WizardState
	if err := w.store.Load(ctx, id, &state); err != nil {
		if errors.Is(err, storage.ErrSessionMissing) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load booking session: %w", err)
	}
	return &state, nil
}

func (w *BookingWizard) save(ctx context.Context, state *WizardState) error {
	state.UpdatedAt = w.now()
	if err := w.store.Save(ctx, state.ID, state, w.ttl); err != nil {
		return fmt.Errorf("save booking session: %w", err)
	}
	return nil
}

// withLock runs fn while holding the session's submit lock.
func (w *BookingWizard) withLock(ctx context.Context, id string, fn func(*WizardState) error) (*WizardState, error) {
	release, err := w.store.Lock(ctx, id, w.lockTTL)
	if errors.Is(err, storage.ErrLocked) {
		return nil, ErrSubmissionInFlight
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking session: %w", err)
	}
	defer release()

	state, err := w.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return state, err
	}

	// a session discarded while fn was talking to the API stays gone
	state.UpdatedAt = w.now()
	err = w.store.SaveExisting(ctx, id, state, w.ttl)
	if errors.Is(err, storage.ErrSessionMissing) {
		golog.Warnf("booking session %s was discarded during submission", id)
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("save booking session: %w", err)
	}
	return state, nil
}

// SubmitCustomer validates step one, creates the customer and moves to
// collecting_journey. On any failure the session stays where it was.
func (w *BookingWizard) SubmitCustomer(ctx context.Context, id string, in models.CustomerInput) (*WizardState, error) {
	return w.withLock(ctx, id, func(state *WizardState) error {
		if state.Step != StepCollectingCustomer {
			return ErrInvalidStep
		}
		if errs := utils.ValidateCustomer(in); len(errs) > 0 {
			return errs
		}

		in.PANNo = utils.NormalizePAN(in.PANNo)
		customerID, err := w.api.AddCustomer(ctx, in.Payload(state.Context.Car.ID))
		if err != nil {
			return err
		}

		state.Customer = &in
		state.CustomerID = customerID
		state.Step = StepCollectingJourney
		publish(ctx, w.events, EventCustomerCreated, map[string]interface{}{
			"session_id":  state.ID,
			"customer_id": customerID,
			"car_id":      state.Context.Car.ID,
		})
		return nil
	})
}

// SubmitJourney validates step two and creates the booking for the car and
// the customer created in step one.
func (w *BookingWizard) SubmitJourney(ctx context.Context, id string, j models.JourneyDetails) (*WizardState, error) {
	return w.withLock(ctx, id, func(state *WizardState) error {
		if state.Step != StepCollectingJourney || state.CustomerID == 0 {
			return ErrInvalidStep
		}
		j = trimJourney(j)
		if errs := utils.ValidateJourney(j, w.now()); len(errs) > 0 {
			return errs
		}

		payload := models.NewBookingPayload(state.Context.Car.ID, state.CustomerID, j)
		bookingID, err := w.api.AddBooking(ctx, payload)
		if err != nil {
			return err
		}

		now := w.now()
		state.Journey = j
		state.BookingID = bookingID
		state.Step = StepCompleted
		state.CompletedAt = &now
		golog.Infof("✅ booking session %s completed (customer %d, car %d)", state.ID, state.CustomerID, state.Context.Car.ID)
		publish(ctx, w.events, EventBookingCreated, map[string]interface{}{
			"session_id": state.ID,
			"booking_id": bookingID,
			"booking":    payload,
		})
		return nil
	})
}

// Back returns from collecting_journey to collecting_customer. The customer
// id and any journey edits are discarded.
func (w *BookingWizard) Back(ctx context.Context, id string) (*WizardState, error) {
	return w.withLock(ctx, id, func(state *WizardState) error {
		if state.Step != StepCollectingJourney {
			return ErrInvalidStep
		}
		state.Step = StepCollectingCustomer
		state.CustomerID = 0
		state.Journey = state.Context.Journey
		return nil
	})
}

// Discard drops the session, as navigating away does.
func (w *BookingWizard) Discard(ctx context.Context, id string) error {
	if err := w.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("discard booking session: %w", err)
	}
	return nil
}
