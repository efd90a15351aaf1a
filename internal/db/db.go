// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
)

// Dialect selects placeholder style and driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DialectOf picks the dialect for a DATABASE_URL value.
func DialectOf(url string) Dialect {
	u := strings.ToLower(strings.TrimSpace(url))
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Rebind rewrites ? placeholders to $1..$n for Postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
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

// Open connects to the settings database and runs migrations.
func Open(ctx context.Context, url string) (*sql.DB, Dialect, error) {
	log := logging.WithComponent("db")
	d := DialectOf(url)
	dsn := url
	if d == SQLite && strings.TrimSpace(dsn) == "" {
		dsn = "file:dashboard.db"
	}

	conn, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, d, fmt.Errorf("open %s: %w", d, err)
	}
	if d == SQLite {
		// a single connection keeps :memory: databases shared and serializes writes
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, d, fmt.Errorf("ping %s: %w", d, err)
	}
	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, d, err
	}
	log.Info("✅ connected to settings database", "dialect", d)
	return conn, d, nil
}

// Migrate creates the settings table when missing.
func Migrate(ctx context.Context, conn *sql.DB) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS dashboard_settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate settings table: %w", err)
	}
	return nil
}
