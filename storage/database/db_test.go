package database

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-guard/core"
)

func Test_dsn(t *testing.T) {
	tests := []struct {
		name       string
		db         core.DatabaseConfig
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name:       "postgres",
			db:         core.DatabaseConfig{Engine: "postgres", Host: "db", Port: 5432, Name: "masomo", User: "guard", Password: "p@ss", DisableTLS: true},
			wantDriver: "postgres",
			wantDSN:    "postgres://guard:p%40ss@db:5432/masomo?default_transaction_read_only=on&sslmode=disable&timezone=utc",
		},
		{
			name:       "postgres with tls",
			db:         core.DatabaseConfig{Engine: "postgres", Host: "db", Name: "masomo", User: "guard"},
			wantDriver: "postgres",
			wantDSN:    "postgres://guard:@db/masomo?default_transaction_read_only=on&sslmode=require&timezone=utc",
		},
		{
			name:       "sqlite",
			db:         core.DatabaseConfig{Engine: "sqlite", Path: "/var/lib/masomo/guard.db"},
			wantDriver: "sqlite",
			wantDSN:    "file:/var/lib/masomo/guard.db?_pragma=busy_timeout(5000)",
		},
		{
			name:       "sqlite in memory",
			db:         core.DatabaseConfig{Engine: "sqlite"},
			wantDriver: "sqlite",
			wantDSN:    "file::memory:?_pragma=busy_timeout(5000)",
		},
		{name: "mysql", db: core.DatabaseConfig{Engine: "mysql"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, source, err := dsn(&core.Config{Database: tt.db})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, source)
		})
	}
}

func TestOpen_sqlite(t *testing.T) {
	db, err := Open(context.Background(), &core.Config{Database: core.DatabaseConfig{Engine: "sqlite"}})
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, db.Rebind("SELECT ?"), 1))
	assert.Equal(t, 1, one)
}

type downDB struct {
	core.DB
	pings int
}

func (db *downDB) PingContext(context.Context) error {
	db.pings++
	return errors.New("connection refused")
}

func Test_ping_cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	db := new(downDB)
	err := ping(ctx, db)
	require.Error(t, err)
	assert.Equal(t, context.DeadlineExceeded, errors.Cause(err))
	assert.GreaterOrEqual(t, db.pings, 2)
}
