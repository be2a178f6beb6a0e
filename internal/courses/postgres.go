package courses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var validPrefix = regexp.MustCompile(`^[a-z0-9_]*$`)

// PostgresDirectory reads course names from the platform's course table.
type PostgresDirectory struct {
	db    *sql.DB
	query string
}

// OpenPostgres opens a pgx-backed connection pool. No connection is made
// until the first query.
func OpenPostgres(dsn, tablePrefix string) (*PostgresDirectory, error) {
	if !validPrefix.MatchString(tablePrefix) {
		return nil, fmt.Errorf("invalid table prefix %q", tablePrefix)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresDirectory(db, tablePrefix), nil
}

// NewPostgresDirectory wraps an existing pool. tablePrefix is trusted.
func NewPostgresDirectory(db *sql.DB, tablePrefix string) *PostgresDirectory {
	return &PostgresDirectory{
		db:    db,
		query: "SELECT fullname FROM " + tablePrefix + "course WHERE id = $1",
	}
}

func (p *PostgresDirectory) Course(ctx context.Context, id int64) (*Course, error) {
	var name string
	err := p.db.QueryRowContext(ctx, p.query, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query course %d: %w", id, err)
	}
	return &Course{ID: id, FullName: name}, nil
}

// Close releases the pool.
func (p *PostgresDirectory) Close() error {
	return p.db.Close()
}

var _ Directory = (*PostgresDirectory)(nil)
