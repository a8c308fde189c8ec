// Package provider collects ready-made Provider constructors for the
// dependency names a node body can request via cfgraph.Get, wrapping the
// SQLite and MySQL database drivers so graphs can declare "I need a SQL
// connection" without hand-rolling the construction logic in every node
// body.
package provider

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite returns a cfgraph.Provider that opens (once per DependencyCache) a
// single *sql.DB against dsn, using the pure-Go modernc.org/sqlite driver.
// WAL mode (journal_mode=WAL) is enabled for better concurrent-reader
// throughput when several of a graph's concurrent tasks share one SQLite
// connection; no busy_timeout is set.
func SQLite(dsn string) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("provider.SQLite: open %q: %w", dsn, err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("provider.SQLite: enable WAL: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("provider.SQLite: ping: %w", err)
		}
		return db, nil
	}
}
