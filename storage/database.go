package storage

import (
	"fmt"
	"strings"

	"car-rental-storefront/models"

	"github.com/kataras/golog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the audit log. The rental API owns cars, customers and bookings.
var DB *gorm.DB

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite", "sqlite3", "":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", driver)
}

// OpenDB connects and migrates without touching the package-level DB.
func OpenDB(driver, dsn string, silent bool) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(d, cfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}
	if err := performMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func performMigrations(db *gorm.DB) error {
	return db.AutoMigrate(&models.AuditLog{})
}

func InitializeDB(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db dsn is required")
	}
	db, err := OpenDB(driver, dsn, false)
	if err != nil {
		return nil, err
	}
	DB = db
	golog.Infof("🗄️  audit database ready (%s)", driver)
	return db, nil
}
