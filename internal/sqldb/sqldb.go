// Package sqldb provides support for accessing the database.
package sqldb

import (
	"context"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Config is the information needed to open a connection pool.
type Config struct {
	User         string
	Password     string
	Host         string
	Name         string
	Schema       string
	MaxIdleConns int
	MaxOpenConns int
	DisableTLS   bool
}

// Open opens a connection pool using the pgx driver.
func Open(cfg Config) (*sqlx.DB, error) {
	sslmode := "require"
	if cfg.DisableTLS {
		sslmode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslmode)
	q.Set("timezone", "utc")

	if cfg.Schema != "" {
		q.Set("search_path", cfg.Schema)
	}

	uri := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("pgx", uri.String())
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	return db, nil
}

// StatusCheck pings the database until it answers or ctx is done, then makes
// sure the engine can run a query.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		pingErr := db.PingContext(ctx)
		if pingErr == nil {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("ping: %s: %w", ctx.Err(), pingErr)
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}

	var ok bool
	if err := db.QueryRowContext(ctx, "SELECT TRUE").Scan(&ok); err != nil {
		return fmt.Errorf("check sql engine: %w", err)
	}

	return nil
}
