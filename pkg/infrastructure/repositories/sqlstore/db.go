// Package sqlstore persists the catalog in SQLite or PostgreSQL through
// database/sql. Queries are written with ? placeholders and rebound for
// PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// Dialect selects the SQL backend
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect accepts the configured storage driver name
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", s)
	}
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// Store is a SQL-backed catalog
type Store struct {
	db      *sql.DB
	dialect Dialect

	products     *ProductRepository
	rawMaterials *RawMaterialRepository
}

var _ repositories.Catalog = (*Store)(nil)

// Open connects to dsn, applies pending migrations and returns the store.
// For SQLite, dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	s, err := Connect(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Connect opens the database without touching the schema
func Connect(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("opening %s store: empty dsn", dialect)
	}
	if dialect == SQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if dialect == SQLite {
		// One connection keeps :memory: databases alive and PRAGMAs applied.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("applying %q: %w", pragma, err)
			}
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
	}

	return newStore(db, dialect), nil
}

func newStore(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect}
	s.products = &ProductRepository{store: s}
	s.rawMaterials = &RawMaterialRepository{store: s}
	return s
}

// Products returns the product repository
func (s *Store) Products() repositories.ProductRepository { return s.products }

// RawMaterials returns the raw material repository
func (s *Store) RawMaterials() repositories.RawMaterialRepository { return s.rawMaterials }

// Dialect reports the backend in use
func (s *Store) Dialect() Dialect { return s.dialect }

// DB exposes the underlying handle, e.g. for health checks
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the connection pool
func (s *Store) Close() error { return s.db.Close() }

// withinTx runs fn in a transaction, rolling back on error or panic
func (s *Store) withinTx(ctx context.Context, opts *sql.TxOptions, fn func(tx DBTX) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL. Queries in this
// package never contain a literal question mark.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
