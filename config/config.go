package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kataras/golog"
	"github.com/spf13/viper"
)

// Available config variables
const (
	AppEnv            = "app.env"
	HTTPPort          = "http.port"
	CORSOrigin        = "http.cors_origin"
	RentalAPIURL      = "api.base_url"
	RentalAPITimeout  = "api.timeout"
	RedisURL          = "redis.url"
	RedisPassword     = "redis.password"
	DBDriver          = "db.driver"
	DBConnection      = "db.dsn"
	PricePolicy       = "pricing.policy"
	AMQPURL           = "amqp.url"
	AMQPExchange      = "amqp.exchange"
	BookingSessionTTL = "booking.session_ttl"
	LogLevel          = "log.level"
)

// Config contains and provides the configuration that is required at runtime
type Config interface {
	GetString(string) string
	GetInt(string) int
	GetBool(string) bool
	GetDuration(string) time.Duration
}

// Load reads .env (outside production), an optional app.yaml from path and the
// process environment. Environment variables win over the file.
func Load(path string) (Config, error) {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		if err := godotenv.Load(); err != nil {
			golog.Debug("no .env file loaded (this is normal in production)")
		}
	}

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	// Render deployments are production unless APP_ENV says otherwise
	if os.Getenv("RENDER") == "" {
		v.SetDefault(AppEnv, "development")
	} else {
		v.SetDefault(AppEnv, "production")
	}
	v.SetDefault(HTTPPort, "4000")
	v.SetDefault(CORSOrigin, "")
	v.SetDefault(RentalAPIURL, "http://127.0.0.1:8000")
	v.SetDefault(RentalAPITimeout, 15*time.Second)
	v.SetDefault(RedisURL, "localhost:6379")
	v.SetDefault(DBDriver, "sqlite")
	v.SetDefault(DBConnection, "storefront.db")
	v.SetDefault(PricePolicy, "priority")
	v.SetDefault(AMQPExchange, "car-rental.events")
	v.SetDefault(BookingSessionTTL, 2*time.Hour)
	v.SetDefault(LogLevel, "info")

	_ = v.BindEnv(AppEnv, "APP_ENV")
	_ = v.BindEnv(HTTPPort, "PORT")
	_ = v.BindEnv(CORSOrigin, "CORS_ORIGIN")
	_ = v.BindEnv(RentalAPIURL, "RENTAL_API_URL")
	_ = v.BindEnv(RentalAPITimeout, "RENTAL_API_TIMEOUT")
	_ = v.BindEnv(RedisURL, "REDIS_URL")
	_ = v.BindEnv(RedisPassword, "REDIS_PASSWORD")
	_ = v.BindEnv(DBDriver, "DB_DRIVER")
	_ = v.BindEnv(DBConnection, "DB_CONNECTION_STRING")
	_ = v.BindEnv(PricePolicy, "PRICE_POLICY")
	_ = v.BindEnv(AMQPURL, "AMQP_URL")
	_ = v.BindEnv(AMQPExchange, "AMQP_EXCHANGE")
	_ = v.BindEnv(BookingSessionTTL, "BOOKING_SESSION_TTL")
	_ = v.BindEnv(LogLevel, "LOG_LEVEL")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		golog.Info("no configuration file found, using environment")
	} else {
		golog.Infof("configuration file used: %s", v.ConfigFileUsed())
	}

	return v, nil
}

// IsDevelopment reports whether the app runs in the development environment.
func IsDevelopment(cfg Config) bool {
	return strings.EqualFold(cfg.GetString(AppEnv), "development")
}
