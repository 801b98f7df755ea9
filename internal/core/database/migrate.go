package database

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"recipe-api/internal/domain"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

const (
	MigrateAuto  = "auto"
	MigrateGoose = "goose"
	MigrateNone  = "none"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{&domain.User{}, &domain.Tag{}, &domain.Ingredient{}, &domain.Recipe{}}
}

// Migrate brings the schema up to date. "goose" runs the embedded PostgreSQL
// migrations, "auto" uses gorm AutoMigrate, "none" does nothing.
func Migrate(db *gorm.DB, driver, mode string) error {
	switch mode {
	case MigrateNone, "":
		return nil
	case MigrateAuto:
		return db.AutoMigrate(Models()...)
	case MigrateGoose:
		if driver != "postgres" {
			return fmt.Errorf("goose migrations are written for postgres, not %q", driver)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB: %w", err)
		}
		goose.SetBaseFS(postgresMigrations)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		if err := goose.Up(sqlDB, "migrations/postgres"); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown migrate mode %q", mode)
	}
}
