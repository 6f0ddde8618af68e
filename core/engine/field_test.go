package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studentRules = []FieldRule{
	Required("name", String, "max=5"),
	Optional("email", Lower, "email"),
	Required("class_id", Int, "gt=0"),
	Optional("status", Lower, "oneof=active inactive"),
}

func TestEvaluateFields_noShortCircuit(t *testing.T) {
	raw := map[string]interface{}{
		"name":     "  ",
		"email":    "not-an-email",
		"class_id": "three",
	}
	rec, failures := evaluateFields("", raw, studentRules, nil, testNow)

	require.Len(t, failures, 3)
	assert.Equal(t, []string{"name", "email", "class_id"}, failureFields(failures))
	assert.Equal(t, []string{"required", "email", "integer"}, newResult(failures).Codes())
	assert.Equal(t, "name is required", failures[0].Message)
	assert.Equal(t, "email must be a valid email address", failures[1].Message)
	assert.Equal(t, "class_id must be an integer", failures[2].Message)
	for _, f := range failures {
		assert.Equal(t, FormatViolation, f.Kind)
	}

	assert.False(t, rec.Has("class_id"))
	assert.True(t, rec.Invalid("class_id"))
	assert.False(t, rec.Invalid("name"), "a blank field is missing, not invalid")
}

func TestEvaluateFields_sanitizes(t *testing.T) {
	raw := map[string]interface{}{
		"name":     " Ada ",
		"email":    " ADA@Example.com ",
		"class_id": json.Number("3"),
		"status":   "Active",
		"unknown":  "dropped",
	}
	rec, failures := evaluateFields("", raw, studentRules, nil, testNow)
	require.Empty(t, failures)

	name, _ := rec.String("name")
	email, _ := rec.String("email")
	classID, _ := rec.Int("class_id")
	status, _ := rec.String("status")
	assert.Equal(t, "Ada", name)
	assert.Equal(t, "ada@example.com", email)
	assert.Equal(t, int64(3), classID)
	assert.Equal(t, "active", status)
	assert.False(t, rec.Has("unknown"))
	assert.Equal(t, []string{"class_id", "email", "name", "status"}, rec.Fields())
}

func TestEvaluateFields_tags(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]interface{}
		field   string
		code    string
		message string
	}{
		{
			name:    "max",
			raw:     map[string]interface{}{"name": "Adalovelace", "class_id": 1},
			field:   "name",
			code:    "max",
			message: "name may not be greater than 5",
		},
		{
			name:    "gt",
			raw:     map[string]interface{}{"name": "Ada", "class_id": 0},
			field:   "class_id",
			code:    "gt",
			message: "class_id must be greater than 0",
		},
		{
			name:    "oneof",
			raw:     map[string]interface{}{"name": "Ada", "class_id": 1, "status": "expelled"},
			field:   "status",
			code:    "oneof",
			message: "status must be one of [active inactive]",
		},
		{
			name:    "fractional integer",
			raw:     map[string]interface{}{"name": "Ada", "class_id": 1.5},
			field:   "class_id",
			code:    "integer",
			message: "class_id must be an integer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, failures := evaluateFields("", tt.raw, studentRules, nil, testNow)
			require.Len(t, failures, 1)
			assert.Equal(t, tt.field, failures[0].Field)
			assert.Equal(t, tt.code, failures[0].Code)
			assert.Equal(t, tt.message, failures[0].Message)
			assert.False(t, rec.Has(tt.field))
		})
	}
}

func TestEvaluateFields_types(t *testing.T) {
	rules := []FieldRule{
		Optional("amount", Decimal),
		Optional("paid", Bool),
		Optional("due_date", Date),
		Optional("time_in", Clock),
		Optional("tags", Strings),
		Optional("snapshot", Map),
	}

	t.Run("valid", func(t *testing.T) {
		raw := map[string]interface{}{
			"amount":   json.Number("180.00"),
			"paid":     "yes",
			"due_date": "2025-01-31",
			"time_in":  "08:15",
			"tags":     []interface{}{" a ", "b"},
			"snapshot": map[string]interface{}{"name": "Ada"},
		}
		rec, failures := evaluateFields("", raw, rules, nil, testNow)
		require.Empty(t, failures)

		amount, _ := rec.Decimal("amount")
		assert.True(t, amount.Equal(decimal.RequireFromString("180")))
		paid, _ := rec.Bool("paid")
		assert.True(t, paid)
		due, _ := rec.Time("due_date")
		assert.Equal(t, time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), due)
		tin, _ := rec.Text("time_in")
		assert.Equal(t, "08:15", tin)
		tags, _ := rec.Strings("tags")
		assert.Equal(t, []string{"a", "b"}, tags)
		snap, _ := rec.Map("snapshot")
		assert.Equal(t, "Ada", snap["name"])
	})

	t.Run("invalid", func(t *testing.T) {
		raw := map[string]interface{}{
			"amount":   "12,5",
			"paid":     "maybe",
			"due_date": "2025-02-30",
			"time_in":  "25:00",
			"tags":     []interface{}{"a", map[string]interface{}{}},
			"snapshot": "name",
		}
		_, failures := evaluateFields("", raw, rules, nil, testNow)
		assert.Equal(t, []string{"decimal", "boolean", "date", "hhmm", "strings", "map"}, newResult(failures).Codes())
		assert.Equal(t, "time_in must be a time formatted as HH:MM", failures[3].Message)
	})
}

func TestEvaluateFields_items(t *testing.T) {
	rules := []FieldRule{
		Required("class_id", Int),
		{
			Field:    "attendance",
			Type:     List,
			Required: true,
			Items: &ItemSchema{
				Fields: []FieldRule{
					Required("student_id", Int),
					Required("status", Lower, "oneof=present absent late"),
				},
				Min:      1,
				Max:      3,
				Distinct: []string{"student_id"},
				Inherit:  []string{"class_id"},
			},
		},
	}

	t.Run("distinct reported at the later index", func(t *testing.T) {
		raw := map[string]interface{}{
			"class_id": 3,
			"attendance": []interface{}{
				map[string]interface{}{"student_id": 1, "status": "present"},
				map[string]interface{}{"student_id": 2, "status": "absent"},
				map[string]interface{}{"student_id": 1, "status": "late"},
			},
		}
		rec, failures := evaluateFields("", raw, rules, nil, testNow)
		require.Len(t, failures, 1)
		assert.Equal(t, "attendance.2.student_id", failures[0].Field)
		assert.Equal(t, CodeDistinct, failures[0].Code)
		assert.Equal(t, "attendance.2.student_id duplicates attendance.0.student_id", failures[0].Message)

		items, ok := rec.Items("attendance")
		require.True(t, ok)
		require.Len(t, items, 3)
		classID, _ := items[1].Int("class_id")
		assert.Equal(t, int64(3), classID, "class_id is inherited")
	})

	t.Run("item failures are prefixed", func(t *testing.T) {
		raw := map[string]interface{}{
			"class_id": 3,
			"attendance": []interface{}{
				map[string]interface{}{"student_id": 1, "status": "present"},
				map[string]interface{}{"student_id": "x", "status": "sleeping"},
				"not an object",
			},
		}
		_, failures := evaluateFields("", raw, rules, nil, testNow)
		assert.Equal(t, []string{"attendance.1.student_id", "attendance.1.status", "attendance.2"}, failureFields(failures))
		assert.Equal(t, "attendance.1.status must be one of [present absent late]", failures[1].Message)
	})

	t.Run("cardinality", func(t *testing.T) {
		item := map[string]interface{}{"student_id": 1, "status": "present"}
		_, failures := evaluateFields("", map[string]interface{}{"class_id": 3, "attendance": []interface{}{}}, rules, nil, testNow)
		require.Len(t, failures, 1)
		assert.Equal(t, "attendance must contain at least 1 items", failures[0].Message)

		many := []interface{}{item, item, item, item}
		_, failures = evaluateFields("", map[string]interface{}{"class_id": 3, "attendance": many}, rules, nil, testNow)
		assert.Equal(t, CodeMaxItems, failures[0].Code)
		assert.Equal(t, "attendance", failures[0].Field)
	})
}
