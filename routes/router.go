package routes

import (
	"car-rental-storefront/services"

	"github.com/kataras/iris/v12"
)

// Handlers carries the services the HTTP handlers call.
type Handlers struct {
	Catalog *services.Catalog
	Wizard  *services.BookingWizard
	CarForm *services.CarForm
}

func Health(ctx iris.Context) {
	ctx.JSON(iris.Map{"status": "ok"})
}

// Mount registers every storefront route on app.
func Mount(app *iris.Application, h *Handlers) {
	app.Get("/health", Health)

	storefront := app.Party("/api/storefront")
	{
		storefront.Get("/cars", h.ListCars)
		storefront.Get("/filters", h.StorefrontFilters)
		storefront.Get("/cars/{id:uint}/prices", h.CarPrices)
		storefront.Post("/cars/{id:uint}/book", h.BookCar)
	}

	booking := app.Party("/api/booking/session")
	{
		booking.Post("/", h.StartBooking)
		booking.Get("/{id:string}", h.GetBooking)
		booking.Delete("/{id:string}", h.DiscardBooking)
		booking.Post("/{id:string}/customer", h.SubmitCustomer)
		booking.Post("/{id:string}/journey", h.SubmitJourney)
		booking.Post("/{id:string}/back", h.BookingBack)
		booking.Get("/{id:string}/receipt", h.BookingReceipt)
	}

	admin := app.Party("/api/admin")
	{
		admin.Get("/cars", h.AdminListCars)
		admin.Get("/cars/reference", h.AdminCarReference)
		admin.Get("/cars/{id:uint}/form", h.AdminCarForm)
		admin.Post("/cars/image", h.AdminSelectImage)
		admin.Post("/cars", h.AdminCreateCar)
		admin.Post("/cars/{id:uint}", h.AdminUpdateCar)
		admin.Delete("/cars/{id:uint}", h.AdminDeleteCar)
		admin.Patch("/cars/{id:uint}/active", h.AdminToggleActive)
		admin.Get("/activity", AdminActivity)
		admin.Get("/stats", AdminStats)
	}
}
