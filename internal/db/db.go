package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"menuhub/internal/config"
	"menuhub/internal/models"
	console "menuhub/internal/utils/logger"
)

var DB *gorm.DB
var log = console.New("DB")

// DSN builds the postgres connection string. The password is not logged.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		cfg.SSLMode,
	)
}

func Connect(cfg *config.Config) error {
	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	log.Info("Connecting to database %s@%s:%d/%s...", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	maxRetries := 5
	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(postgres.Open(DSN(cfg.Database)), &gorm.Config{
			Logger:                                   logger.Default.LogMode(logLevel),
			DisableForeignKeyConstraintWhenMigrating: true,
			PrepareStmt:                              true,
			AllowGlobalUpdate:                        false,
			TranslateError:                           true,
		})
		if err == nil {
			log.Success("Connected to database")

			sqlDB, err := DB.DB()
			if err != nil {
				return log.Error("Failed to get underlying *sql.DB instance", err)
			}

			sqlDB.SetMaxOpenConns(50)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxLifetime(time.Hour)
			sqlDB.SetConnMaxIdleTime(time.Minute * 30)

			if err := Migrate(DB); err != nil {
				return log.Error("Failed to run migrations", err)
			}

			log.Success("Migrations completed")
			return nil
		}
		log.Warn("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Second * 5)
	}
	return log.Error("failed to connect to database after %d attempts", err, maxRetries)
}

// Migrate creates or updates every table in one transaction.
func Migrate(db *gorm.DB) error {
	log.Info("Running migrations...")
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			// Identity core
			&models.Identity{},
			&models.ProviderLink{},
			&models.EmployeePermission{},

			// Tenancy and menu
			&models.Company{},
			&models.Branch{},
			&models.Category{},
			&models.Product{},
			&models.Schedule{},
			&models.Social{},
		)
	})
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}
