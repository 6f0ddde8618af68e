package engine

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/masomo-guard/core/identity"
)

// Entity is a read-only snapshot of a persisted record, eg. "student #7: status=active,
// class_id=3". Its identity is (Kind, ID).
type Entity struct {
	Kind  EntityKind
	ID    int64
	Attrs map[string]interface{}
}

func (e Entity) Attr(name string) (interface{}, bool) {
	v, ok := e.Attrs[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (e Entity) String(name string) (string, bool) {
	switch v := e.Attrs[name].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func (e Entity) Int(name string) (int64, bool) {
	v, ok := e.Attr(name)
	if !ok {
		return 0, false
	}
	if b, isBytes := v.([]byte); isBytes {
		v = string(b)
	}
	return toInt(v)
}

func (e Entity) Bool(name string) (bool, bool) {
	v, ok := e.Attr(name)
	if !ok {
		return false, false
	}
	return toBool(v)
}

func (e Entity) Time(name string) (time.Time, bool) {
	switch v := e.Attrs[name].(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", dateLayout} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Map returns an object attribute. JSON text (eg. a version snapshot stored in a text column)
// is decoded.
func (e Entity) Map(name string) (map[string]interface{}, bool) {
	switch v := e.Attrs[name].(type) {
	case map[string]interface{}:
		return v, true
	case string:
		return decodeObject([]byte(v))
	case []byte:
		return decodeObject(v)
	}
	return nil, false
}

func decodeObject(b []byte) (map[string]interface{}, bool) {
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// Equal reports whether attribute name equals the sanitized record value v.
func (e Entity) Equal(name string, v interface{}) bool {
	a, ok := e.Attr(name)
	if !ok {
		return false
	}
	switch v := v.(type) {
	case int64:
		i, ok := e.Int(name)
		return ok && i == v
	case decimal.Decimal:
		d, ok := toDecimal(normalizeBytes(a))
		return ok && d.Equal(v)
	case bool:
		b, ok := e.Bool(name)
		return ok && b == v
	case time.Time:
		t, ok := e.Time(name)
		return ok && truncateDay(t).Equal(truncateDay(v))
	}
	as, ok1 := text(normalizeBytes(a))
	vs, ok2 := text(v)
	return ok1 && ok2 && as == vs
}

func normalizeBytes(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Filter selects entities by attribute equality. A nil value matches a NULL attribute.
// ExcludeID, when non-zero, leaves out the entity with that id (the record being updated).
type Filter struct {
	Conds     map[string]interface{}
	ExcludeID int64
}

// Where returns a Filter on the given attribute/value pairs.
func Where(conds map[string]interface{}) Filter {
	return Filter{Conds: conds}
}

func (f Filter) Excluding(id int64) Filter {
	f.ExcludeID = id
	return f
}

// Columns returns the filtered attribute names, sorted.
func (f Filter) Columns() []string {
	cols := make([]string, 0, len(f.Conds))
	for c := range f.Conds {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (f Filter) String() string {
	parts := make([]string, 0, len(f.Conds)+1)
	for _, c := range f.Columns() {
		s, ok := text(f.Conds[c])
		if !ok {
			s = "null"
		}
		parts = append(parts, c+"="+s)
	}
	if f.ExcludeID != 0 {
		parts = append(parts, "id!="+strconv.FormatInt(f.ExcludeID, 10))
	}
	return strings.Join(parts, ",")
}

// Matches reports whether e satisfies f.
func (f Filter) Matches(e Entity) bool {
	if f.ExcludeID != 0 && e.ID == f.ExcludeID {
		return false
	}
	for col, v := range f.Conds {
		if v == nil {
			if _, ok := e.Attr(col); ok {
				return false
			}
			continue
		}
		if !e.Equal(col, v) {
			return false
		}
	}
	return true
}

// DataProvider gives the rules read access to persisted records. The engine never writes.
type DataProvider interface {
	// FetchEntity returns ErrNotFound when no entity has this id.
	FetchEntity(ctx context.Context, kind EntityKind, id int64) (Entity, error)
	QueryExists(ctx context.Context, kind EntityKind, f Filter) (bool, error)
	QueryOne(ctx context.Context, kind EntityKind, f Filter) (Entity, bool, error)
}

// IdentityProvider says who is asking and whether they hold a role.
type IdentityProvider interface {
	CurrentActor(ctx context.Context) identity.Actor
	HasAnyRole(actor identity.Actor, roles []string) bool
}

var _ IdentityProvider = (*identity.RoleProvider)(nil)
