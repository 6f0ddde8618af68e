package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type (
	// DBReader is the read-only subset of *sqlx.DB / *sqlx.Tx the rule engine is allowed to use.
	DBReader interface {
		DriverName() string
		Rebind(query string) string
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	}

	DB interface {
		DBReader

		PingContext(ctx context.Context) error
		Close() error
	}
)

var (
	_ DB       = (*sqlx.DB)(nil)
	_ DBReader = (*sqlx.Tx)(nil)
)
