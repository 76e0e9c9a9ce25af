// Package migrations embeds the goose SQL migrations of both services.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed auth/*.sql
var authFS embed.FS

//go:embed tasks/*.sql
var tasksFS embed.FS

const (
	Auth  = "auth"
	Tasks = "tasks"
)

// FS returns the migration files of the named service.
func FS(service string) (fs.FS, error) {
	switch service {
	case Auth:
		return fs.Sub(authFS, Auth)
	case Tasks:
		return fs.Sub(tasksFS, Tasks)
	default:
		return nil, fmt.Errorf("unknown migration set %q", service)
	}
}

// NewProvider builds a goose provider over db for the named service.
func NewProvider(db *sql.DB, service string) (*goose.Provider, error) {
	fsys, err := FS(service)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectPostgres, db, fsys)
}

// Up applies every pending migration of the named service.
func Up(ctx context.Context, db *sql.DB, service string) error {
	p, err := NewProvider(db, service)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate %s up: %w", service, err)
	}
	return nil
}
