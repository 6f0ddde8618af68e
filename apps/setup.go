// Package apps holds what the API and the admin CLI share: building a validator from the
// configuration.
package apps

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
	"github.com/trezcool/masomo-guard/core/school"
	auditsvc "github.com/trezcool/masomo-guard/services/audit"
	"github.com/trezcool/masomo-guard/storage/database"
	sqlxrepos "github.com/trezcool/masomo-guard/storage/database/sqlx"
)

// Deps are the collaborators of a validator.
type Deps struct {
	Provider engine.DataProvider
	Logger   core.Logger
	Observer engine.Observer
	Audit    []engine.AuditSink
	Clock    core.Clock
}

// NewValidator builds the school rule sets tuned by conf and a validator over them.
func NewValidator(conf *core.Config, deps Deps) (*engine.Validator, error) {
	opts, err := school.OptionsFromConfig(conf)
	if err != nil {
		return nil, errors.Wrap(err, "reading rules config")
	}
	reg, err := school.NewRegistry(opts)
	if err != nil {
		return nil, errors.Wrap(err, "building rule sets")
	}

	sinks := deps.Audit
	if deps.Logger != nil {
		sinks = append([]engine.AuditSink{auditsvc.NewLoggerSink(deps.Logger)}, sinks...)
	}

	return engine.New(engine.Options{
		Registry: reg,
		Provider: deps.Provider,
		Clock:    deps.Clock,
		Audit:    auditsvc.Tee(sinks...),
		Observer: deps.Observer,
		Logger:   deps.Logger,
		Elevated: opts.ElevatedRoles,
	})
}

// OpenProvider connects to the configured database and returns a read-only provider over it.
// The caller closes the returned database.
func OpenProvider(ctx context.Context, conf *core.Config) (engine.DataProvider, *sqlx.DB, error) {
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening database")
	}
	provider, err := sqlxrepos.NewProvider(db, nil)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return provider, db, nil
}
