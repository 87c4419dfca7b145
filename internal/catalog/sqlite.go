package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/Maxibaroni/bot-ia-motos/internal/analysis/intent"
	model "github.com/Maxibaroni/bot-ia-motos/internal/model/catalog"
)

//go:embed migrations/*.sql
var migrations embed.FS

// sqliteStore serves the catalog from an embedded libsql database with
// a goose-managed schema.
type sqliteStore struct {
	db *sql.DB
}

func openSQLite(path string) (*sqliteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("[catalog] database not found, creating a new one at %s", path)
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("could not create db at path %s: %w", path, err)
		}
		file.Close()
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach catalog database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run catalog migrations: %w", err)
	}
	return nil
}

// Search looks for the first product whose name contains the cleaned
// query. LIKE gives the same case-insensitive contains semantics the
// memory variant implements by hand, with one caveat: SQLite folds
// case for ASCII only, so a product name carrying an accented capital
// (e.g. "Í") matches in the memory variant but not here. Accepted:
// the source catalog uses title-cased ASCII names.
func (s *sqliteStore) Search(ctx context.Context, rawQuery string) (model.Product, error) {
	cleaned := intent.CleanQuery(rawQuery)

	const q = `SELECT name, price, COALESCE(description, ''), url FROM products WHERE name LIKE ? ORDER BY id LIMIT 1`

	var p model.Product
	err := s.db.QueryRowContext(ctx, q, "%"+cleaned+"%").Scan(&p.Name, &p.Price, &p.Description, &p.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("catalog query failed: %w", err)
	}
	return p, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
