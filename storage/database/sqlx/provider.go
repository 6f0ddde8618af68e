package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
)

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DefaultTables maps every entity kind to the table holding it.
var DefaultTables = map[engine.EntityKind]string{
	engine.EntityStudent:    "student",
	engine.EntityTeacher:    "teacher",
	engine.EntityClass:      "class",
	engine.EntityUser:       "user",
	engine.EntityFee:        "fee",
	engine.EntityAttendance: "attendance",
	engine.EntityExam:       "exam",
	engine.EntityPayroll:    "payroll",
	engine.EntityApproval:   "approval",
	engine.EntityVersion:    "version",
	engine.EntityAudit:      "audit_log",
}

// Provider reads the entities the rules look up from a SQL database. It only ever runs
// SELECT statements.
type Provider struct {
	db     core.DBReader
	tables map[engine.EntityKind]string
}

var _ engine.DataProvider = (*Provider)(nil)

// NewProvider returns a Provider over db. tables overrides DefaultTables per kind.
func NewProvider(db core.DBReader, tables map[engine.EntityKind]string) (*Provider, error) {
	t := make(map[engine.EntityKind]string, len(DefaultTables))
	for k, v := range DefaultTables {
		t[k] = v
	}
	for k, v := range tables {
		t[k] = v
	}
	for k, v := range t {
		if !identRegex.MatchString(v) {
			return nil, errors.Errorf("invalid table name %q for %s", v, k)
		}
	}
	return &Provider{db: db, tables: t}, nil
}

func (p *Provider) table(kind engine.EntityKind) (string, error) {
	t, ok := p.tables[kind]
	if !ok {
		return "", errors.Errorf("no table for entity kind %q", kind)
	}
	return `"` + t + `"`, nil
}

func (p *Provider) FetchEntity(ctx context.Context, kind engine.EntityKind, id int64) (engine.Entity, error) {
	table, err := p.table(kind)
	if err != nil {
		return engine.Entity{}, err
	}
	q := p.db.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table))
	attrs := make(map[string]interface{})
	if err = p.db.QueryRowxContext(ctx, q, id).MapScan(attrs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.Entity{}, engine.ErrNotFound
		}
		return engine.Entity{}, errors.Wrapf(err, "fetching %s #%d", kind, id)
	}
	return engine.Entity{Kind: kind, ID: id, Attrs: normalize(attrs)}, nil
}

func (p *Provider) QueryExists(ctx context.Context, kind engine.EntityKind, f engine.Filter) (bool, error) {
	q, args, err := p.selectWhere(kind, "1", f)
	if err != nil {
		return false, err
	}
	var one int
	if err = p.db.QueryRowxContext(ctx, q, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrapf(err, "querying %s where %s", kind, f)
	}
	return true, nil
}

// QueryOne returns the matching entity with the lowest id.
func (p *Provider) QueryOne(ctx context.Context, kind engine.EntityKind, f engine.Filter) (engine.Entity, bool, error) {
	q, args, err := p.selectWhere(kind, "*", f)
	if err != nil {
		return engine.Entity{}, false, err
	}
	rows, err := p.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return engine.Entity{}, false, errors.Wrapf(err, "querying %s where %s", kind, f)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return engine.Entity{}, false, errors.Wrapf(rows.Err(), "querying %s where %s", kind, f)
	}
	attrs := make(map[string]interface{})
	if err = rows.MapScan(attrs); err != nil {
		return engine.Entity{}, false, errors.Wrapf(err, "scanning %s", kind)
	}
	e := engine.Entity{Kind: kind, Attrs: normalize(attrs)}
	e.ID, _ = e.Int("id")
	return e, true, nil
}

// selectWhere builds `SELECT cols FROM table WHERE ... ORDER BY id LIMIT 1` for f.
func (p *Provider) selectWhere(kind engine.EntityKind, cols string, f engine.Filter) (string, []interface{}, error) {
	table, err := p.table(kind)
	if err != nil {
		return "", nil, err
	}

	var conds []string
	var args []interface{}
	for _, col := range f.Columns() {
		if !identRegex.MatchString(col) {
			return "", nil, errors.Errorf("invalid column name %q", col)
		}
		v := f.Conds[col]
		if v == nil {
			conds = append(conds, fmt.Sprintf(`"%s" IS NULL`, col))
			continue
		}
		conds = append(conds, fmt.Sprintf(`"%s" = ?`, col))
		args = append(args, arg(v))
	}
	if f.ExcludeID != 0 {
		conds = append(conds, "id <> ?")
		args = append(args, f.ExcludeID)
	}

	q := fmt.Sprintf("SELECT %s FROM %s", cols, table)
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id LIMIT 1"
	return p.db.Rebind(q), args, nil
}

// arg converts a sanitized record value to a query argument. Dates are compared as
// YYYY-MM-DD so that both DATE columns and sqlite TEXT columns match.
func arg(v interface{}) interface{} {
	switch v := v.(type) {
	case time.Time:
		if v.Year() == 0 {
			return v.Format("15:04:05")
		}
		return v.Format("2006-01-02")
	case decimal.Decimal:
		return v.String()
	}
	return v
}

func normalize(attrs map[string]interface{}) map[string]interface{} {
	for k, v := range attrs {
		if b, ok := v.([]byte); ok {
			attrs[k] = string(b)
		}
	}
	return attrs
}
