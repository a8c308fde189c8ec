package provider

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL returns a cfgraph.Provider that opens a single *sql.DB against dsn
// using the go-sql-driver/mysql driver, for node bodies that need a shared
// relational connection pool rather than one connection per task.
func MySQL(dsn string) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("provider.MySQL: open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("provider.MySQL: ping: %w", err)
		}
		return db, nil
	}
}
