package db

import (
	"context"
	"testing"
)

func TestDialectOf(t *testing.T) {
	cases := map[string]Dialect{
		"postgres://u:p@host/db":     Postgres,
		"postgresql://host/db":       Postgres,
		"file:dashboard.db":          SQLite,
		"":                           SQLite,
		"file::memory:?cache=shared": SQLite,
	}
	for in, want := range cases {
		if got := DialectOf(in); got != want {
			t.Errorf("DialectOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	if got := Postgres.Rebind(q); got != "INSERT INTO t (a, b) VALUES ($1, $2)" {
		t.Errorf("unexpected rebind %q", got)
	}
	if got := SQLite.Rebind(q); got != q {
		t.Errorf("sqlite should keep ? placeholders, got %q", got)
	}
}

func TestOpenMigratesSQLite(t *testing.T) {
	conn, d, err := Open(context.Background(), "file::memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if d != SQLite {
		t.Fatalf("expected sqlite, got %q", d)
	}
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM dashboard_settings`).Scan(&n); err != nil {
		t.Fatalf("settings table missing: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty table, got %d rows", n)
	}
}
