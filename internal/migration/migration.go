// Package migration brings the schema up to date on startup so the
// service is usable out of the box for local and self-hosted setups.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	docdomain "github.com/agencydesk/agencydesk/internal/document/domain"
	quotadomain "github.com/agencydesk/agencydesk/internal/quota/domain"
	scheddomain "github.com/agencydesk/agencydesk/internal/schedule/domain"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded SQL migrations against postgres.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema through gorm for the non-postgres
// dialects, where the versioned SQL files do not apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&tenantdomain.Tenant{},
		&tenantdomain.Actor{},
		&quotadomain.LedgerEntry{},
		&botdomain.Bot{},
		&convdomain.Conversation{},
		&convdomain.Message{},
		&docdomain.Document{},
		&docdomain.ExtractionRecord{},
		&scheddomain.ScheduleEvent{},
		&scheddomain.ScheduleTask{},
	)
}
