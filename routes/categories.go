package routes

import (
	"car-rental-storefront/services"

	"github.com/kataras/iris/v12"
)

// GET /api/storefront/filters
// The amenity and category vocabularies plus the seat counts present in the
// catalog. A vocabulary that could not be loaded falls back to its defaults.
func (h *Handlers) StorefrontFilters(ctx iris.Context) {
	cards, err := h.Catalog.ListCars(ctx.Request().Context(), journeyFromQuery(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ref := h.CarForm.LoadReferenceData(ctx.Request().Context())

	ctx.JSON(iris.Map{
		"success": true,
		"data": iris.Map{
			"amenities":  ref.Amenities,
			"categories": ref.Categories,
			"seats":      services.SeatOptions(cards),
			"sort":       []services.SortMode{services.SortCheapest, services.SortRating},
		},
		"count":    len(cards),
		"degraded": ref.Degraded,
	})
}
