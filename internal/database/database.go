package database

import (
	"fmt"

	"github.com/innologic/company-service/internal/config"
	"github.com/innologic/company-service/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database connection. The driver is chosen by
// configuration so the same binary runs against PostgreSQL or MySQL.
func Connect(cfg *config.Config) error {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.MySQLDSN())
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func Migrate() error {
	err := DB.AutoMigrate(
		&models.Company{},
		&models.Location{},
		&models.DeletionTombstone{},
		&models.DeletionAck{},
		&models.BootstrapIdempotency{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (used for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
