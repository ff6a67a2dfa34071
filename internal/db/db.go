package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

// ConnectAndMigrate opens the database from DATABASE_DSN with retries and
// brings the schema up to date. Postgres DSNs can run versioned SQL
// migrations (MIGRATIONS=1); everything else falls back to AutoMigrate.
func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	sqliteDSN := IsSQLiteDSN(dsn)
	var db *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		if sqliteDSN {
			db, err = gorm.Open(sqlite.Open(dsn), cfg)
		} else {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
		}
		if err == nil {
			break
		}
		slog.Warn("retrying DB connection", "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	slog.Info("database connected", "dsn", maskDSN(dsn))

	// MIGRATIONS=1 runs versioned SQL migrations (postgres only); otherwise
	// AutoMigrate keeps dev/test setups simple.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); !sqliteDSN && (v == "1" || v == "true" || v == "yes") {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		modelsToMigrate := []interface{}{
			&models.User{}, &models.AccountActivation{}, &models.Wallet{}, &models.Category{}, &models.Invoice{},
		}
		for _, m := range modelsToMigrate {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	for _, table := range []string{"users", "wallets", "categories", "invoices"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

func maskDSN(dsn string) string {
	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	if re := regexp.MustCompile(`(://[^:/@]+:)([^@]+)@`); re.MatchString(masked) {
		masked = re.ReplaceAllString(masked, `${1}***@`)
	}
	return masked
}

// seed inserts starter categories for every user that has none yet.
func seed(db *gorm.DB) {
	starters := []struct {
		Name string
		Type models.EntryType
	}{
		{"Salary", models.TypeIncome},
		{"Other Income", models.TypeIncome},
		{"Housing", models.TypeExpense},
		{"Food", models.TypeExpense},
		{"Transport", models.TypeExpense},
	}
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		slog.Warn("seed: load users", "error", err)
		return
	}
	for _, u := range users {
		var count int64
		if err := db.Model(&models.Category{}).Where("user_id = ?", u.ID).Count(&count).Error; err != nil || count > 0 {
			continue
		}
		for _, s := range starters {
			db.Create(&models.Category{UserID: u.ID, Name: s.Name, Type: s.Type})
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
