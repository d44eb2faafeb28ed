// Package database opens the optional registry database.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"drivedocs/internal/apperror"
	"drivedocs/internal/config"
)

// PingTimeout bounds the connectivity check at startup and in health checks.
const PingTimeout = 5 * time.Second

var sqlOpen = sql.Open

var (
	registerOnce sync.Once
	tracedDriver string
	registerErr  error
)

// tracedPgx registers the otelsql wrapper around pgx once per process.
func tracedPgx() (string, error) {
	registerOnce.Do(func() {
		tracedDriver, registerErr = otelsql.Register("pgx",
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithSQLCommenter(true),
		)
	})
	return tracedDriver, registerErr
}

// BuildPostgresDSN renders c as a postgres:// URL. The password is omitted
// when empty and sslmode only when set.
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", apperror.New("database", apperror.ErrConfig,
			errors.New("host, port, user, and name are required"))
	}

	userinfo := url.User(c.User)
	if c.Password != "" {
		userinfo = url.UserPassword(c.User, c.Password)
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   userinfo,
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   c.Name,
	}
	if c.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return dsn.String(), nil
}

// NewPostgres opens the registry through the traced pgx driver, applies the
// pool limits and pings once within ctx.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := tracedPgx()
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	applyPool(db, c)

	if err := Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// applyPool sets the non-zero pool limits from c.
func applyPool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}
}

// Ping verifies connectivity within PingTimeout.
func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}
