package main

import (
	"flag"
	"fmt"

	"car-rental-storefront/config"
	"car-rental-storefront/routes"
	"car-rental-storefront/services"
	"car-rental-storefront/storage"
	"car-rental-storefront/utils"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
)

func newApp(cfg config.Config, h *routes.Handlers) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel(cfg.GetString(config.LogLevel))
	app.Validator = utils.Validator()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(corsMiddleware(cfg.GetString(config.CORSOrigin), config.IsDevelopment(cfg)))

	app.Use(iris.Compression)

	routes.Mount(app, h)
	return app
}

// corsMiddleware answers preflights and sets the CORS headers. Without a
// configured origin the request Origin is echoed in development only; other
// environments send no Allow-Origin or credentials header at all.
func corsMiddleware(allowedOrigin string, dev bool) iris.Handler {
	return func(ctx iris.Context) {
		origin := allowedOrigin
		if origin == "" && dev {
			origin = ctx.GetHeader("Origin")
		}
		if origin != "" {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Vary", "Origin")
			ctx.Header("Access-Control-Allow-Credentials", "true")
		}
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, X-Admin-User")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

func main() {
	configPath := flag.String("config", "", "directory containing app.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		golog.Fatalf("❌ failed to load configuration: %v", err)
	}
	golog.SetLevel(cfg.GetString(config.LogLevel))

	if _, err := storage.InitializeDB(cfg.GetString(config.DBDriver), cfg.GetString(config.DBConnection)); err != nil {
		golog.Fatalf("❌ failed to open audit database: %v", err)
	}
	redisClient := storage.InitializeRedis(cfg.GetString(config.RedisURL), cfg.GetString(config.RedisPassword))

	var events services.EventPublisher = services.NopPublisher{}
	if url := cfg.GetString(config.AMQPURL); url != "" {
		pub, err := services.NewAMQPPublisher(url, cfg.GetString(config.AMQPExchange))
		if err != nil {
			golog.Warnf("⚠️  events disabled, could not connect to broker: %v", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	api := services.NewRentalAPI(cfg.GetString(config.RentalAPIURL), cfg.GetDuration(config.RentalAPITimeout))
	policy := services.ParsePricePolicy(cfg.GetString(config.PricePolicy))

	sessions := storage.NewRedisSessionStore(redisClient, "")
	wizard := services.NewBookingWizard(api, sessions, events, cfg.GetDuration(config.BookingSessionTTL))

	app := newApp(cfg, &routes.Handlers{
		Catalog: services.NewCatalog(api, wizard, policy, api.BaseURL()),
		Wizard:  wizard,
		CarForm: services.NewCarForm(api, events, policy, api.BaseURL()),
	})

	addr := ":" + cfg.GetString(config.HTTPPort)
	fmt.Println("🚀 Starting storefront on", addr, "→ rental API", api.BaseURL())

	if err := app.Listen(addr); err != nil {
		golog.Fatalf("❌ failed to start server: %v", err)
	}
}
