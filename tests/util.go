// Package testutil holds the fixtures shared by the tests of the validation surfaces.
package testutil

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-guard/core/identity"
	inmemdb "github.com/trezcool/masomo-guard/storage/database/inmem"
)

// Now is the reference time of the fixtures: the day after the last attendance.
var Now = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

// Fixtures is a small school: two classes, their teachers, a few students with fees and
// attendance, approvals and versions to roll back to.
const Fixtures = `
class:
  - {id: 3, name: Form 1A, teacher_id: 21}
  - {id: 4, name: Form 2B, teacher_id: 22}
user:
  - {id: 1, username: principal, status: active}
  - {id: 9, username: wanjiru, status: active}
  - {id: 10, username: former, status: inactive}
  - {id: 21, username: kamau, status: active}
student:
  - {id: 7, name: Jane Achieng, status: active, class_id: 3, admission_number: ADM001, email: jane@school.test, national_id: "234567890124"}
  - {id: 8, name: Tom Mwangi, status: graduated, class_id: 4, admission_number: ADM002}
  - {id: 12, name: Amani Njeri, status: active, class_id: 3, admission_number: ADM003}
teacher:
  - {id: 21, name: Peter Kamau, status: active, email: kamau@school.test, employee_code: EMP001}
  - {id: 22, name: Paul Otieno, status: inactive, email: otieno@school.test, employee_code: EMP002}
fee:
  - {id: 5, student_id: 7, class_id: 3, fee_type: tuition, academic_year: 2024-2025, term: term1, status: pending}
  - {id: 6, student_id: 7, class_id: 3, fee_type: transport, academic_year: 2024-2025, term: term1, status: paid}
attendance:
  - {id: 51, student_id: 7, class_id: 3, date: "2025-06-14", session: morning, status: present}
approval:
  - {id: 11, status: pending, assigned_to: 9}
  - {id: 13, status: approved, assigned_to: 9}
payroll:
  - {id: 41, teacher_id: 21, month: 5, year: 2025, status: paid}
version:
  - id: 31
    entity_type: student
    entity_id: 7
    is_current: false
    created_at: "2025-05-01T08:00:00Z"
    snapshot: {name: Jane Achieng, class_id: 3, guardian_phone: "+254700000001"}
  - {id: 32, entity_type: student, entity_id: 7, is_current: true, created_at: "2025-06-01T08:00:00Z", snapshot: {name: Jane Achieng, class_id: 3}}
  - {id: 33, entity_type: student, entity_id: 7, is_current: false, created_at: "2024-01-10T08:00:00Z", snapshot: {name: Jane}}
  - {id: 34, entity_type: teacher, entity_id: 21, is_current: false, created_at: "2025-05-01T08:00:00Z", snapshot: {name: Peter Kamau}}
  - {id: 35, entity_type: student, entity_id: 7, is_current: false, created_at: "2025-05-20T08:00:00Z", snapshot: {}}
`

var (
	Principal = identity.Actor{ID: 1, Username: "principal", Roles: []string{identity.RoleAdminPrincipal}}
	Assignee  = identity.Actor{ID: 9, Username: "wanjiru", Roles: []string{identity.RoleTeacher}}
	Kamau     = identity.Actor{ID: 21, Username: "kamau", Roles: []string{identity.RoleTeacher}}
	Otieno    = identity.Actor{ID: 22, Username: "otieno", Roles: []string{identity.RoleTeacher}}
)

// OpenDB returns an in-memory database loaded with Fixtures.
func OpenDB(t *testing.T) *inmemdb.DB {
	t.Helper()
	db := inmemdb.Open()
	if err := db.Load([]byte(Fixtures)); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

// Payload decodes a JSON object the way the HTTP API does: numbers are kept as json.Number.
func Payload(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(bytes.NewBufferString(s))
	dec.UseNumber()
	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))
	return m
}
