package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"car-rental-storefront/models"
	"car-rental-storefront/storage"

	"golang.org/x/exp/slices"
)

var ErrCarNotFound = errors.New("car not found")

// CarSource is the part of the rental API the catalog reads from.
type CarSource interface {
	ListCars(ctx context.Context, window *models.JourneyDetails) ([]models.Car, error)
	GetCar(ctx context.Context, id uint) (models.Car, error)
}

// CarCard is the catalog's view model of one car.
type CarCard struct {
	ID        uint               `json:"id"`
	Name      string             `json:"name"`
	Model     string             `json:"model"`
	Category  string             `json:"category,omitempty"`
	IsActive  bool               `json:"isActive"`
	Seats     int                `json:"seats"`
	Amenities models.AmenityRefs `json:"amenities"`
	Rating    float64            `json:"rating"`
	ImageURL  string             `json:"image"`
	Price     PriceQuote         `json:"price"`
}

// Summary is the slice of the card the booking wizard carries.
func (c CarCard) Summary() models.CarSummary {
	return models.CarSummary{
		ID:        c.ID,
		Name:      c.Name,
		Model:     c.Model,
		ImageURL:  c.ImageURL,
		Price:     c.Price.Display,
		PriceType: c.Price.RateType,
	}
}

type CatalogFilter struct {
	AmenityIDs []int `json:"amenities"`
	Seats      []int `json:"seats"`
}

type SortMode string

const (
	SortCheapest SortMode = "cheapest"
	SortRating   SortMode = "rating"
)

type Catalog struct {
	source    CarSource
	wizard    *BookingWizard
	policy    PricePolicy
	imageBase string
}

func NewCatalog(source CarSource, wizard *BookingWizard, policy PricePolicy, imageBase string) *Catalog {
	return &Catalog{source: source, wizard: wizard, policy: policy, imageBase: imageBase}
}

// Card maps an API car to its view model, resolving the display price.
func (c *Catalog) Card(car models.Car) CarCard {
	return newCarCard(car, c.policy, c.imageBase)
}

func newCarCard(car models.Car, policy PricePolicy, imageBase string) CarCard {
	card := CarCard{
		ID:        car.ID,
		Name:      car.Name,
		Model:     car.Model,
		IsActive:  bool(car.IsActive),
		Seats:     car.Seats(),
		Amenities: car.Amenities,
		Rating:    float64(car.Rating),
		ImageURL:  storage.ResolveImageURL(imageBase, car.ImageURL),
		Price:     ResolvePrice(car.PriceDetails, car.DiscountPriceDetails, policy, car.PreferredPriceType),
	}
	if card.Amenities == nil {
		card.Amenities = models.AmenityRefs{}
	}
	if car.Category != nil {
		card.Category = car.Category.Name
	}
	return card
}

// ListCars fetches the catalog, scoped to the journey window when one is known.
func (c *Catalog) ListCars(ctx context.Context, window *models.JourneyDetails) ([]CarCard, error) {
	cars, err := c.source.ListCars(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	cards := make([]CarCard, 0, len(cars))
	for _, car := range cars {
		cards = append(cards, c.Card(car))
	}
	return cards, nil
}

// findCar reads one car, falling back to scanning the list when the single
// car endpoint is not deployed.
func (c *Catalog) findCar(ctx context.Context, id uint) (models.Car, error) {
	car, err := c.source.GetCar(ctx, id)
	if err == nil {
		return car, nil
	}
	if !IsEndpointMissing(err) {
		return models.Car{}, err
	}
	cars, err := c.source.ListCars(ctx, nil)
	if err != nil {
		return models.Car{}, err
	}
	for _, car := range cars {
		if car.ID == id {
			return car, nil
		}
	}
	return models.Car{}, ErrCarNotFound
}

type CarPrices struct {
	Car  CarCard        `json:"car"`
	Rows []BreakdownRow `json:"rows"`
}

// PriceBreakdown is the per-rate-type table of one car.
func (c *Catalog) PriceBreakdown(ctx context.Context, id uint) (CarPrices, error) {
	car, err := c.findCar(ctx, id)
	if err != nil {
		return CarPrices{}, fmt.Errorf("price breakdown for car %d: %w", id, err)
	}
	return CarPrices{
		Car:  c.Card(car),
		Rows: PriceBreakdown(car.PriceDetails, car.DiscountPriceDetails),
	}, nil
}

// BookNow hands the selected car and the carried journey to a new wizard session.
func (c *Catalog) BookNow(ctx context.Context, id uint, journey models.JourneyDetails) (*WizardState, error) {
	car, err := c.findCar(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("book car %d: %w", id, err)
	}
	return c.wizard.Start(ctx, WizardContext{Car: c.Card(car).Summary(), Journey: journey})
}

// ApplyFilters keeps cars that have every selected amenity and, when seat
// counts are selected, one of those seat counts.
func ApplyFilters(cards []CarCard, f CatalogFilter) []CarCard {
	out := make([]CarCard, 0, len(cards))
	for _, card := range cards {
		if len(f.Seats) > 0 && !slices.Contains(f.Seats, card.Seats) {
			continue
		}
		ok := true
		for _, id := range f.AmenityIDs {
			if !card.Amenities.Has(id) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, card)
		}
	}
	return out
}

func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortRating:
		return SortRating
	case SortCheapest:
		return SortCheapest
	}
	return ""
}

// SortCards returns a sorted copy. cheapest puts cars without a price last;
// rating is highest first. Ties keep their order.
func SortCards(cards []CarCard, mode SortMode) []CarCard {
	out := append([]CarCard(nil), cards...)
	switch mode {
	case SortCheapest:
		slices.SortStableFunc(out, func(x, y CarCard) int {
			a, b := x.Price.Display, y.Price.Display
			switch {
			case a == nil && b == nil:
				return 0
			case a == nil:
				return 1
			case b == nil:
				return -1
			case *a < *b:
				return -1
			case *a > *b:
				return 1
			}
			return 0
		})
	case SortRating:
		slices.SortStableFunc(out, func(x, y CarCard) int {
			switch {
			case x.Rating > y.Rating:
				return -1
			case x.Rating < y.Rating:
				return 1
			}
			return 0
		})
	}
	return out
}

// SeatOptions lists the distinct seat counts in the catalog, ascending, for
// the seat filter.
func SeatOptions(cards []CarCard) []int {
	seats := make([]int, 0, len(cards))
	for _, c := range cards {
		seats = append(seats, c.Seats)
	}
	slices.Sort(seats)
	return slices.Compact(seats)
}
