package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-guard/apps"
	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
	"github.com/trezcool/masomo-guard/core/identity"
	auditsvc "github.com/trezcool/masomo-guard/services/audit"
	inmemdb "github.com/trezcool/masomo-guard/storage/database/inmem"
)

type validateFlags struct {
	kind     string
	op       string
	file     string
	fixtures string
	at       string
	actor    int64
	username string
	roles    []string
	asJSON   bool
}

func (cli *commandLine) validateCmd() *cobra.Command {
	var flags validateFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a candidate record",
		Long: `Validate a candidate record (a JSON object) against the rule set of its kind and operation.

The referenced records are read from the configured database, or from a YAML fixtures file.
Audit events are written to stderr. Exits with status 2 when the record is rejected.

Examples:
  # Check a fee before saving it
  admin validate --kind fee --op create --file fee.json --actor 1 --roles admin:principal

  # Against fixtures, as of a given day
  cat approval.json | admin validate --kind approval --op approve --actor 9 --roles teacher: \
    --fixtures school.yaml --at 2025-06-15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.validate(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.kind, "kind", "", "record kind: student, teacher, fee, attendance, exam, payroll, audit, approval, rollback")
	f.StringVar(&flags.op, "op", "", "operation: create, update, bulk, approve, reject, delegate, rollback")
	f.StringVarP(&flags.file, "file", "f", "-", "candidate record file, - for stdin")
	f.StringVar(&flags.fixtures, "fixtures", "", "YAML fixtures to read the referenced records from instead of the database")
	f.StringVar(&flags.at, "at", "", "reference date (YYYY-MM-DD or RFC3339), defaults to now")
	f.Int64Var(&flags.actor, "actor", 0, "id of the acting user")
	f.StringVar(&flags.username, "username", "", "username of the acting user")
	f.StringSliceVar(&flags.roles, "roles", nil, "roles of the acting user")
	f.BoolVar(&flags.asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("op")
	return cmd
}

func (cli *commandLine) validate(cmd *cobra.Command, flags validateFlags) error {
	ctx := cmd.Context()

	rc := engine.RequestContext{
		Actor:     identity.Actor{ID: flags.actor, Username: flags.username, Roles: flags.roles},
		UserAgent: "masomo-guard-admin",
	}
	for _, role := range flags.roles {
		if !identity.IsRole(role) {
			return apps.NewArgumentError("roles", "unknown role %q", role)
		}
	}
	if flags.at != "" {
		at, err := parseTime(flags.at)
		if err != nil {
			return apps.NewArgumentError("at", "%v", err)
		}
		rc.Now = at
	}

	raw, err := cli.readCandidate(cmd, flags.file)
	if err != nil {
		return err
	}

	var provider engine.DataProvider
	if flags.fixtures != "" {
		data, err := os.ReadFile(flags.fixtures)
		if err != nil {
			return errors.Wrap(err, "reading fixtures")
		}
		db := inmemdb.Open()
		if err = db.Load(data); err != nil {
			return apps.NewArgumentError("fixtures", "%v", err)
		}
		provider = db
	} else {
		p, closer, err := cli.openProvider(ctx, cli.conf)
		if err != nil {
			return err
		}
		defer closer.Close()
		provider = p
	}

	validator, err := apps.NewValidator(cli.conf, apps.Deps{
		Provider: provider,
		Audit:    []engine.AuditSink{auditsvc.NewJSONSink(cmd.ErrOrStderr())},
	})
	if err != nil {
		return err
	}

	kind := engine.Kind(core.CleanString(flags.kind, true))
	op := engine.Operation(core.CleanString(flags.op, true))
	res, err := validator.Validate(ctx, rc, kind, op, raw)
	if err != nil {
		return err
	}

	if err = printResult(cmd.OutOrStdout(), res, flags.asJSON); err != nil {
		return err
	}
	if !res.Accepted {
		return errRejected
	}
	return nil
}

func (cli *commandLine) readCandidate(cmd *cobra.Command, file string) (map[string]interface{}, error) {
	var r io.Reader
	if file == "" || file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, errors.Wrap(err, "opening candidate record")
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding candidate record")
	}
	if raw == nil {
		return nil, errors.New("candidate record must be a JSON object")
	}
	return raw, nil
}

func printResult(w io.Writer, res engine.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(res), "writing result")
	}

	if res.Accepted {
		_, err := fmt.Fprintln(w, "accepted")
		return err
	}
	if _, err := fmt.Fprintf(w, "rejected: %d failure(s)\n", len(res.Failures)); err != nil {
		return err
	}
	for _, f := range res.Failures {
		if _, err := fmt.Fprintf(w, "  - %s\n", f); err != nil {
			return err
		}
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Errorf("%q is neither a date nor an RFC3339 time", s)
	}
	return t.UTC(), nil
}
