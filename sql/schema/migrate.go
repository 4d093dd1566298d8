package schema

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Migrate applies the embedded migrations, optionally resetting first.
func Migrate(db *sql.DB, reset bool) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("schema: set dialect: %w", err)
	}
	if reset {
		if err := goose.Reset(db, "."); err != nil {
			return fmt.Errorf("schema: reset: %w", err)
		}
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("schema: up: %w", err)
	}
	return nil
}
