package routes

import (
	"strconv"
	"strings"

	"car-rental-storefront/models"
	"car-rental-storefront/services"
	"car-rental-storefront/utils"

	"github.com/kataras/iris/v12"
)

// parseIDList reads "1,2,3"; entries that are not positive integers are ignored.
func parseIDList(raw string) []int {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && n > 0 {
			ids = append(ids, n)
		}
	}
	return ids
}

func journeyFromQuery(ctx iris.Context) *models.JourneyDetails {
	j := &models.JourneyDetails{
		JourneyFromDate: ctx.URLParamTrim("journey_start_date"),
		JourneyEndDate:  ctx.URLParamTrim("journey_end_date"),
		PickupLocation:  ctx.URLParamTrim("pickup_location"),
		DropLocation:    ctx.URLParamTrim("drop_location"),
	}
	if !j.HasWindow() {
		return nil
	}
	return j
}

// GET /api/storefront/cars
func (h *Handlers) ListCars(ctx iris.Context) {
	cards, err := h.Catalog.ListCars(ctx.Request().Context(), journeyFromQuery(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	filter := services.CatalogFilter{
		AmenityIDs: parseIDList(ctx.URLParam("amenities")),
		Seats:      parseIDList(ctx.URLParam("seats")),
	}
	mode := services.ParseSortMode(ctx.URLParamDefault("sort", string(services.SortCheapest)))
	cards = services.SortCards(services.ApplyFilters(cards, filter), mode)

	ctx.JSON(iris.Map{
		"success": true,
		"data":    cards,
		"meta": iris.Map{
			"total":  len(cards),
			"sort":   mode,
			"filter": filter,
		},
	})
}

// GET /api/storefront/cars/{id}/prices
func (h *Handlers) CarPrices(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		utils.CreateError(iris.StatusBadRequest, "invalid_id", "Invalid car ID", ctx)
		return
	}
	prices, err := h.Catalog.PriceBreakdown(ctx.Request().Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONData(ctx, prices)
}

// POST /api/storefront/cars/{id}/book
func (h *Handlers) BookCar(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		utils.CreateError(iris.StatusBadRequest, "invalid_id", "Invalid car ID", ctx)
		return
	}
	var journey models.JourneyDetails
	if err := readJSON(ctx, &journey); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	state, err := h.Catalog.BookNow(ctx.Request().Context(), id, journey)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.StatusCode(iris.StatusCreated)
	utils.JSONData(ctx, state)
}
