// Package fixtures prepares the database the end-to-end suite runs against.
package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"

	_ "github.com/go-sql-driver/mysql"
)

var schemaNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// SchemaPreparer makes sure the end-to-end schema exists on the MySQL server
// before the suite starts. With an empty DSN it does nothing.
type SchemaPreparer struct {
	dsn    string
	schema string
}

func NewSchemaPreparer(dsn, schema string) (*SchemaPreparer, error) {
	if dsn != "" && !schemaNameRegex.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name %q", schema)
	}
	return &SchemaPreparer{dsn: dsn, schema: schema}, nil
}

func (p *SchemaPreparer) Enabled() bool {
	return p != nil && p.dsn != ""
}

func (p *SchemaPreparer) Prepare(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	db, err := sql.Open("mysql", p.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("MySQL ping failed: %w", err)
	}

	// Identifiers cannot be bound as parameters; the name is validated above.
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", p.schema)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("Ensured end-to-end database schema: %s", p.schema)
	return nil
}
