package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/masomo-guard/core/engine"
)

type (
	// DB is an in-memory engine.DataProvider, used by the tests and the CLI's fixture mode.
	DB struct {
		mutex  sync.RWMutex
		tables map[engine.EntityKind]*table
		// Err, when set, is returned by every read. It simulates an unreachable database.
		Err error
	}

	table struct {
		pkCount int64
		rows    map[int64]map[string]interface{}
	}
)

var _ engine.DataProvider = (*DB)(nil)

func Open() *DB {
	db := &DB{tables: make(map[engine.EntityKind]*table)}
	for _, kind := range engine.EntityKinds() {
		db.tables[kind] = &table{rows: make(map[int64]map[string]interface{})}
	}
	return db
}

// Insert stores a row of kind and returns its id. attrs["id"], when set, is used as the id.
func (db *DB) Insert(kind engine.EntityKind, attrs map[string]interface{}) (int64, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t, ok := db.tables[kind]
	if !ok {
		return 0, errors.Errorf("unknown entity kind %q", kind)
	}
	row := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		row[k] = v
	}

	e := engine.Entity{Attrs: row}
	id, ok := e.Int("id")
	if !ok || id <= 0 {
		t.pkCount++
		id = t.pkCount
	} else if id > t.pkCount {
		t.pkCount = id
	}
	row["id"] = id
	t.rows[id] = row
	return id, nil
}

// MustInsert is Insert for fixtures known to be valid.
func (db *DB) MustInsert(kind engine.EntityKind, attrs map[string]interface{}) int64 {
	id, err := db.Insert(kind, attrs)
	if err != nil {
		panic(err)
	}
	return id
}

// Delete removes the rows of kind with the given ids.
func (db *DB) Delete(kind engine.EntityKind, ids ...int64) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if t, ok := db.tables[kind]; ok {
		for _, id := range ids {
			delete(t.rows, id)
		}
	}
}

// Load inserts YAML fixtures of the form:
//
//	student:
//	  - {id: 7, status: active, class_id: 3}
func (db *DB) Load(data []byte) error {
	var fixtures map[string][]map[string]interface{}
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return errors.Wrap(err, "decoding fixtures")
	}
	for name, rows := range fixtures {
		kind, ok := engine.ParseEntityKind(name)
		if !ok {
			return errors.Errorf("fixtures: unknown entity kind %q", name)
		}
		for _, row := range rows {
			if _, err := db.Insert(kind, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (db *DB) FetchEntity(ctx context.Context, kind engine.EntityKind, id int64) (engine.Entity, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if db.Err != nil {
		return engine.Entity{}, db.Err
	}
	t, ok := db.tables[kind]
	if !ok {
		return engine.Entity{}, errors.Errorf("unknown entity kind %q", kind)
	}
	row, ok := t.rows[id]
	if !ok {
		return engine.Entity{}, engine.ErrNotFound
	}
	return engine.Entity{Kind: kind, ID: id, Attrs: row}, nil
}

func (db *DB) QueryExists(ctx context.Context, kind engine.EntityKind, f engine.Filter) (bool, error) {
	_, ok, err := db.QueryOne(ctx, kind, f)
	return ok, err
}

// QueryOne returns the matching row with the lowest id.
func (db *DB) QueryOne(ctx context.Context, kind engine.EntityKind, f engine.Filter) (engine.Entity, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if db.Err != nil {
		return engine.Entity{}, false, db.Err
	}
	t, ok := db.tables[kind]
	if !ok {
		return engine.Entity{}, false, errors.Errorf("unknown entity kind %q", kind)
	}

	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e := engine.Entity{Kind: kind, ID: id, Attrs: t.rows[id]}
		if f.Matches(e) {
			return e, true, nil
		}
	}
	return engine.Entity{}, false, nil
}
