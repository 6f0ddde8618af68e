package school

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/checksum"
	"github.com/trezcool/masomo-guard/core/engine"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(DefaultOptions())
	require.NoError(t, err)

	var keys []string
	for _, k := range reg.Keys() {
		keys = append(keys, k.String())
	}
	assert.Equal(t, []string{
		"approval.approve", "approval.delegate", "approval.reject",
		"attendance.bulk", "attendance.create", "attendance.update",
		"audit.create",
		"exam.create", "exam.update",
		"fee.create", "fee.update",
		"payroll.create", "payroll.update",
		"rollback.rollback",
		"student.create", "student.update",
		"teacher.create", "teacher.update",
	}, keys)

	rs, ok := reg.Lookup(engine.Key(engine.KindAudit, engine.OpCreate))
	require.True(t, ok)
	assert.Len(t, rs.Policies, 3)
	rs, _ = reg.Lookup(engine.Key(engine.KindApproval, engine.OpDelegate))
	assert.True(t, rs.Audited)
	assert.Len(t, rs.Policies, 2)
}

func TestOptionsFromConfig(t *testing.T) {
	conf := &core.Config{Rules: core.RulesConfig{
		StudentIDOrder: "as_provided",
		TeacherIDOrder: "reversed",
		ElevatedRoles:  []string{"admin:owner"},
		BulkMaxItems:   50,
	}}
	opts, err := OptionsFromConfig(conf)
	require.NoError(t, err)
	assert.Equal(t, checksum.AsProvided, opts.StudentIDOrder)
	assert.Equal(t, checksum.Reversed, opts.TeacherIDOrder)
	assert.Equal(t, []string{"admin:owner"}, opts.ElevatedRoles)
	assert.Equal(t, 50, opts.BulkMaxItems)
	assert.Equal(t, DefaultOptions().RollbackMaxAge, opts.RollbackMaxAge)

	conf.Rules.ElevatedRoles = []string{"janitor"}
	_, err = OptionsFromConfig(conf)
	assert.Error(t, err)

	conf.Rules.ElevatedRoles = nil
	conf.Rules.TeacherIDOrder = "backwards"
	_, err = OptionsFromConfig(conf)
	assert.Error(t, err)
}

func TestStudentRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindStudent, engine.OpCreate, []scenario{
		{
			name: "valid",
			raw: `{"name": "Baraka Otieno", "email": "Baraka@School.test", "admission_number": "ADM010",
				"national_id": "499187234568", "date_of_birth": "2012-03-04", "admission_date": "2025-01-06",
				"class_id": 3, "guardian_phone": "+254700000002", "status": "active"}`,
		},
		{
			name: "teacher check digit order",
			raw: `{"name": "Baraka Otieno", "admission_number": "ADM010", "national_id": "234567890126",
				"date_of_birth": "2012-03-04", "admission_date": "2025-01-06", "class_id": 3}`,
			codes: []string{codeChecksum},
		},
		{
			name: "taken admission number and email",
			raw: `{"name": "Jane Doe", "email": "JANE@school.test", "admission_number": "ADM001",
				"date_of_birth": "2012-03-04", "admission_date": "2025-01-06", "class_id": 3}`,
			codes: []string{engine.CodeTaken, engine.CodeTaken},
		},
		{
			name: "too young",
			raw: `{"name": "Baby Otieno", "admission_number": "ADM011", "date_of_birth": "2023-01-01",
				"admission_date": "2025-01-06", "class_id": 3}`,
			codes: []string{engine.CodeAgeBetween},
		},
		{
			name: "unknown class",
			raw: `{"name": "Baraka Otieno", "admission_number": "ADM010", "date_of_birth": "2012-03-04",
				"admission_date": "2025-01-06", "class_id": 99}`,
			codes: []string{engine.CodeExists},
		},
		{
			name: "admitted tomorrow",
			raw: `{"name": "Baraka Otieno", "admission_number": "ADM010", "date_of_birth": "2012-03-04",
				"admission_date": "2025-06-16", "class_id": 3}`,
			codes: []string{engine.CodeNotInFuture},
		},
	})
	run(t, v, engine.KindStudent, engine.OpUpdate, []scenario{
		{
			name: "keeps its own unique values",
			raw: `{"id": 7, "name": "Jane Achieng", "email": "jane@school.test", "admission_number": "ADM001",
				"national_id": "234567890124", "date_of_birth": "2011-02-01", "admission_date": "2024-01-08",
				"class_id": 3}`,
		},
		{
			name: "unknown student",
			raw: `{"id": 70, "name": "Jane Achieng", "admission_number": "ADM070", "date_of_birth": "2011-02-01",
				"admission_date": "2024-01-08", "class_id": 3}`,
			codes: []string{engine.CodeExists},
		},
	})
}

func TestTeacherRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindTeacher, engine.OpCreate, []scenario{
		{
			name: "valid",
			raw: `{"name": "Grace Wambui", "email": "grace@school.test", "employee_code": "EMP010",
				"national_id": "234567890126", "date_of_birth": "1990-05-05", "joining_date": "2020-01-06",
				"qualification": "Masters", "salary": "45000.00"}`,
		},
		{
			name: "student check digit order",
			raw: `{"name": "Grace Wambui", "email": "grace@school.test", "employee_code": "EMP010",
				"national_id": "234567890124", "date_of_birth": "1990-05-05", "joining_date": "2020-01-06"}`,
			codes: []string{codeChecksum},
		},
		{
			name: "under age on joining",
			raw: `{"name": "Grace Wambui", "email": "grace@school.test", "employee_code": "EMP010",
				"date_of_birth": "2005-01-01", "joining_date": "2020-01-06"}`,
			codes: []string{engine.CodeAgeMin},
		},
		{
			name: "taken employee code",
			raw: `{"name": "Grace Wambui", "email": "grace@school.test", "employee_code": "EMP002",
				"date_of_birth": "1990-05-05", "joining_date": "2020-01-06"}`,
			codes: []string{engine.CodeTaken},
		},
		{
			name: "unpaid salary",
			raw: `{"name": "Grace Wambui", "email": "grace@school.test", "employee_code": "EMP010",
				"date_of_birth": "1990-05-05", "joining_date": "2020-01-06", "salary": 0}`,
			codes: []string{"gt"},
		},
	})
}

func TestFeeRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindFee, engine.OpCreate, []scenario{
		{
			name: "tax reconciles",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "tuition", "academic_year": "2024-2025",
				"term": "term1", "amount": "1200.00", "tax_percentage": 15, "tax_amount": "180.00",
				"due_date": "2025-07-01", "status": "pending"}`,
		},
		{
			name: "tax within a cent",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "tuition", "academic_year": "2024-2025",
				"term": "term1", "amount": "1200.00", "tax_percentage": 15, "tax_amount": "180.01",
				"due_date": "2025-07-01", "status": "pending"}`,
		},
		{
			name: "duplicate fee",
			raw: `{"student_id": 7, "class_id": 3, "fee_type": "tuition", "academic_year": "2024-2025",
				"term": "term1", "amount": 1000, "due_date": "2025-07-01", "status": "pending"}`,
			codes: []string{engine.CodeDuplicate},
		},
		{
			name: "same fee another month",
			raw: `{"student_id": 7, "class_id": 3, "fee_type": "tuition", "academic_year": "2024-2025",
				"term": "term1", "month": 7, "amount": 1000, "due_date": "2025-07-01", "status": "pending"}`,
		},
		{
			name: "installments",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "exam", "academic_year": "2024-2025",
				"amount": 1000, "due_date": "2025-07-01", "status": "pending",
				"installments": [{"amount": 600, "due_date": "2025-08-01"}, {"amount": 300, "due_date": "2025-07-01"}]}`,
			codes: []string{engine.CodeReconciliation, engine.CodeAscending},
		},
		{
			name: "paid without payment",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "library", "academic_year": "2024-2025",
				"amount": 100, "due_date": "2025-07-01", "status": "paid"}`,
			codes: []string{engine.CodeRequiredIf, engine.CodeRequiredIf},
		},
		{
			name: "overpaid",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "library", "academic_year": "2024-2025",
				"amount": 100, "due_date": "2025-07-01", "status": "partial", "paid_amount": 150}`,
			codes: []string{engine.CodeAtMost},
		},
		{
			name: "student of another class",
			raw: `{"student_id": 12, "class_id": 4, "fee_type": "library", "academic_year": "2024-2025",
				"amount": 100, "due_date": "2025-07-01", "status": "pending"}`,
			codes: []string{engine.CodeMismatch},
		},
		{
			name: "graduated student",
			raw: `{"student_id": 8, "class_id": 4, "fee_type": "library", "academic_year": "2024-2025",
				"amount": 100, "due_date": "2025-07-01", "status": "pending"}`,
			codes: []string{engine.CodeInvalidState},
		},
		{
			name: "academic year skips a year",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "library", "academic_year": "2024-2026",
				"amount": 100, "due_date": "2025-07-01", "status": "pending"}`,
			codes: []string{engine.CodeAcademicYearSeq},
		},
		{
			name: "waiver escalates",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "library", "academic_year": "2024-2025",
				"amount": 100, "due_date": "2025-07-01", "status": "waived"}`,
			codes: []string{engine.CodeEscalationRequired, engine.CodeEscalationRequired},
		},
		{
			name: "approved waiver",
			raw: `{"student_id": 12, "class_id": 3, "fee_type": "library", "academic_year": "2024-2025",
				"amount": 100, "due_date": "2025-07-01", "status": "waived",
				"waiver_reason": "Bursary awarded by the board", "approved_by": 1}`,
		},
	})
	run(t, v, engine.KindFee, engine.OpUpdate, []scenario{
		{
			name: "pending fee",
			raw: `{"id": 5, "student_id": 7, "class_id": 3, "fee_type": "tuition", "academic_year": "2024-2025",
				"term": "term1", "amount": 1100, "due_date": "2025-07-01", "status": "pending"}`,
		},
		{
			name: "paid fee is frozen",
			raw: `{"id": 6, "student_id": 7, "class_id": 3, "fee_type": "transport", "academic_year": "2024-2025",
				"term": "term1", "amount": 500, "due_date": "2025-07-01", "status": "paid",
				"paid_amount": 500, "payment_date": "2025-06-01"}`,
			codes: []string{engine.CodeInvalidState},
		},
	})
}

func TestFeeRules_taxMismatch(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	res := validate(t, v, principal, engine.KindFee, engine.OpCreate,
		`{"student_id": 12, "class_id": 3, "fee_type": "tuition", "academic_year": "2024-2025",
		"term": "term1", "amount": "1200.00", "tax_percentage": 15, "tax_amount": "179.00",
		"due_date": "2025-07-01", "status": "pending"}`)

	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, engine.ReconciliationMismatch, f.Kind)
	assert.Equal(t, "tax_amount", f.Field)
	assert.Equal(t, "tax_amount is 179.00 but should be 180.00 (tolerance 0.01)", f.Message)
}

func TestAttendanceRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindAttendance, engine.OpCreate, []scenario{
		{
			name:  "class teacher",
			actor: kamau,
			raw:   `{"student_id": 12, "class_id": 3, "date": "2025-06-14", "session": "morning", "status": "present"}`,
		},
		{
			name:  "another teacher",
			actor: otieno,
			raw:   `{"student_id": 12, "class_id": 3, "date": "2025-06-14", "session": "morning", "status": "present"}`,
			codes: []string{engine.CodeNotAuthorized},
		},
		{
			name:  "already marked",
			actor: principal,
			raw:   `{"student_id": 7, "class_id": 3, "date": "2025-06-14", "session": "morning", "status": "absent"}`,
			codes: []string{engine.CodeDuplicate},
		},
		{
			name:  "late without arrival time",
			actor: kamau,
			raw:   `{"student_id": 12, "class_id": 3, "date": "2025-06-14", "status": "late"}`,
			codes: []string{engine.CodeRequiredIf},
		},
		{
			name:  "left before arriving",
			actor: kamau,
			raw:   `{"student_id": 12, "class_id": 3, "date": "2025-06-14", "status": "half_day", "time_in": "09:00", "time_out": "08:00"}`,
			codes: []string{engine.CodeAfter},
		},
		{
			name:  "tomorrow",
			actor: kamau,
			raw:   `{"student_id": 12, "class_id": 3, "date": "2025-06-16", "status": "present"}`,
			codes: []string{engine.CodeNotInFuture},
		},
		{
			name:  "bad clock",
			actor: kamau,
			raw:   `{"student_id": 12, "class_id": 3, "date": "2025-06-14", "status": "late", "time_in": "25:00"}`,
			codes: []string{"hhmm"},
		},
	})
}

func TestAttendanceRules_bulk(t *testing.T) {
	v := newValidator(t, DefaultOptions())

	res := validate(t, v, kamau, engine.KindAttendance, engine.OpBulk,
		`{"class_id": 3, "date": "2025-06-14", "session": "afternoon", "attendance": [
			{"student_id": 7, "status": "present"},
			{"student_id": 12, "status": "absent"},
			{"student_id": 7, "status": "late", "time_in": "08:10"}
		]}`)
	require.Len(t, res.Failures, 1, "%v", res.Failures)
	assert.Equal(t, engine.CodeDistinct, res.Failures[0].Code)
	assert.Equal(t, "attendance.2.student_id", res.Failures[0].Field)
	assert.Equal(t, "attendance.2.student_id duplicates attendance.0.student_id", res.Failures[0].Message)

	res = validate(t, v, kamau, engine.KindAttendance, engine.OpBulk,
		`{"class_id": 3, "date": "2025-06-14", "attendance": [{"student_id": 8, "status": "present"}]}`)
	assert.Equal(t, []string{engine.CodeInvalidState, engine.CodeMismatch}, res.Codes())
	assert.Equal(t, []string{"attendance.0.student_id", "attendance.0.class_id"}, []string{res.Failures[0].Field, res.Failures[1].Field})

	res = validate(t, v, otieno, engine.KindAttendance, engine.OpBulk,
		`{"class_id": 3, "date": "2025-06-14", "attendance": [{"student_id": 12, "status": "present"}]}`)
	assert.Equal(t, []string{engine.CodeNotAuthorized}, res.Codes())

	opts := DefaultOptions()
	opts.BulkMaxItems = 1
	v = newValidator(t, opts)
	res = validate(t, v, kamau, engine.KindAttendance, engine.OpBulk,
		`{"class_id": 3, "date": "2025-06-14", "attendance": [{"student_id": 7, "status": "present"}, {"student_id": 12, "status": "present"}]}`)
	assert.Equal(t, []string{engine.CodeMaxItems}, res.Codes())
}

func TestExamRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindExam, engine.OpCreate, []scenario{
		{
			name: "valid",
			raw: `{"class_id": 3, "subject": "Mathematics", "exam_type": "final", "exam_date": "2025-07-10",
				"start_time": "09:00", "end_time": "11:00", "total_marks": 100, "passing_marks": 40}`,
		},
		{
			name: "pass mark above total",
			raw: `{"class_id": 3, "subject": "Mathematics", "exam_date": "2025-07-10", "total_marks": 100, "passing_marks": 120}`,
			codes: []string{engine.CodeAtMost},
		},
		{
			name: "ends before it starts",
			raw: `{"class_id": 3, "subject": "Mathematics", "exam_date": "2025-07-10", "start_time": "09:00",
				"end_time": "08:00", "total_marks": 100}`,
			codes: []string{engine.CodeAfter},
		},
		{
			name:  "open ended",
			raw:   `{"class_id": 3, "subject": "Mathematics", "exam_date": "2025-07-10", "start_time": "09:00", "total_marks": 100}`,
			codes: []string{engine.CodeRequiredWith},
		},
	})
}

func TestPayrollRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindPayroll, engine.OpCreate, []scenario{
		{
			name: "valid",
			raw: `{"teacher_id": 21, "month": 6, "year": 2025, "basic_salary": "40000.00",
				"allowances": [{"name": "housing", "amount": 5000}, {"name": "transport", "amount": 2000}],
				"gross_salary": "47000.00", "deductions": [{"name": "paye", "amount": "7050.00"}],
				"net_salary": "39950.00", "payment_mode": "bank_transfer", "bank_account": "0123456789"}`,
		},
		{
			name: "net ignores deductions",
			raw: `{"teacher_id": 21, "month": 6, "year": 2025, "basic_salary": "40000.00",
				"allowances": [{"name": "housing", "amount": 5000}, {"name": "transport", "amount": 2000}],
				"gross_salary": "47000.00", "deductions": [{"name": "paye", "amount": "7050.00"}],
				"net_salary": "47000.00", "payment_mode": "bank_transfer", "bank_account": "0123456789"}`,
			codes: []string{engine.CodeReconciliation},
		},
		{
			name: "cheque without number",
			raw: `{"teacher_id": 21, "month": 6, "year": 2025, "basic_salary": 40000, "gross_salary": 40000,
				"net_salary": 40000, "payment_mode": "cheque"}`,
			codes: []string{engine.CodeRequiredIf},
		},
		{
			name: "already run",
			raw: `{"teacher_id": 21, "month": 5, "year": 2025, "basic_salary": 40000, "gross_salary": 40000,
				"net_salary": 40000, "payment_mode": "cash"}`,
			codes: []string{engine.CodeDuplicate},
		},
		{
			name: "inactive teacher",
			raw: `{"teacher_id": 22, "month": 6, "year": 2025, "basic_salary": 40000, "gross_salary": 40000,
				"net_salary": 40000, "payment_mode": "cash"}`,
			codes: []string{engine.CodeInvalidState},
		},
	})
	run(t, v, engine.KindPayroll, engine.OpUpdate, []scenario{
		{
			name: "paid run is frozen",
			raw: `{"id": 41, "teacher_id": 21, "month": 5, "year": 2025, "basic_salary": 40000, "gross_salary": 40000,
				"net_salary": 40000, "payment_mode": "cash"}`,
			codes: []string{engine.CodeInvalidState},
		},
	})
}

func TestAuditRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindAudit, engine.OpCreate, []scenario{
		{
			name: "low risk",
			raw: `{"entity_type": "student", "entity_id": 7, "action": "update",
				"description": "Corrected the guardian phone number", "risk_level": "low",
				"old_values": {"guardian_phone": "+254700000001"}, "new_values": {"guardian_phone": "+254700000009"}}`,
		},
		{
			name: "critical risk escalates",
			raw: `{"entity_type": "student", "entity_id": 7, "action": "update",
				"description": "Corrected the guardian phone number", "risk_level": "critical",
				"old_values": {}, "new_values": {}}`,
			codes: []string{engine.CodeEscalationRequired, "approval_required", engine.CodeEscalationRequired, "checklist_not_empty"},
		},
		{
			name: "critical risk fully escalated",
			raw: `{"entity_type": "student", "entity_id": 7, "action": "update",
				"description": "Corrected the guardian phone number", "risk_level": "critical",
				"old_values": {}, "new_values": {}, "requires_approval": true, "reviewer_id": 9,
				"emergency_contact": "+254700000003", "verification_checklist": ["backup verified"]}`,
		},
		{
			name: "documents without types",
			raw: `{"entity_type": "fee", "entity_id": 5, "action": "create", "description": "Fee assigned at admission",
				"new_values": {"amount": 1000}, "documents": ["invoice.pdf", "receipt.pdf"], "document_types": ["pdf"]}`,
			codes: []string{engine.CodeSameLength},
		},
		{
			name: "unknown entity",
			raw: `{"entity_type": "student", "entity_id": 99, "action": "delete", "description": "Removed a duplicate record",
				"old_values": {"name": "Ghost"}}`,
			codes: []string{engine.CodeExists},
		},
		{
			name: "inactive reviewer",
			raw: `{"entity_type": "student", "entity_id": 7, "action": "delete", "description": "Removed a duplicate record",
				"old_values": {"name": "Jane"}, "reviewer_id": 10}`,
			codes: []string{engine.CodeInvalidState},
		},
		{
			name: "urgent without justification",
			raw: `{"entity_type": "teacher", "entity_id": 21, "action": "update", "description": "Updated the bank details",
				"old_values": {}, "new_values": {}, "priority": "high"}`,
			codes: []string{engine.CodeEscalationRequired},
		},
	})
}

func TestApprovalRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	run(t, v, engine.KindApproval, engine.OpApprove, []scenario{
		{name: "assignee", actor: assignee, raw: `{"approval_id": 11}`},
		{name: "elevated", actor: principal, raw: `{"approval_id": 11}`},
		{name: "someone else", actor: kamau, raw: `{"approval_id": 11}`, codes: []string{engine.CodeNotAuthorized}},
		{name: "already decided", actor: principal, raw: `{"approval_id": 13}`, codes: []string{engine.CodeInvalidState}},
		{name: "unknown", actor: principal, raw: `{"approval_id": 14}`, codes: []string{engine.CodeExists}},
		{
			name:  "financial without checklist",
			actor: assignee,
			raw:   `{"approval_id": 11, "approval_type": "financial"}`,
			codes: []string{engine.CodeEscalationRequired},
		},
	})
	run(t, v, engine.KindApproval, engine.OpReject, []scenario{
		{name: "explained", actor: assignee, raw: `{"approval_id": 11, "comments": "The budget line is exhausted"}`},
		{name: "terse", actor: assignee, raw: `{"approval_id": 11, "comments": "no"}`, codes: []string{"min"}},
		{name: "silent", actor: assignee, raw: `{"approval_id": 11}`, codes: []string{engine.CodeRequired}},
	})
	run(t, v, engine.KindApproval, engine.OpDelegate, []scenario{
		{name: "to a colleague", actor: principal, raw: `{"approval_id": 11, "delegate_to": 21}`},
		{name: "to oneself", actor: assignee, raw: `{"approval_id": 11, "delegate_to": 9}`, codes: []string{codeDelegateTarget}},
		{name: "to the assignee", actor: principal, raw: `{"approval_id": 11, "delegate_to": 9}`, codes: []string{codeDelegateTarget}},
		{name: "to an inactive user", actor: assignee, raw: `{"approval_id": 11, "delegate_to": 10}`, codes: []string{engine.CodeInvalidState}},
	})
}

func TestRollbackRules(t *testing.T) {
	v := newValidator(t, DefaultOptions())
	const reason = `"reason": "Restore the previous guardian contact"`
	run(t, v, engine.KindRollback, engine.OpRollback, []scenario{
		{
			name: "full",
			raw:  `{"entity_type": "student", "entity_id": 7, "version_id": 31, "rollback_type": "full", ` + reason + `}`,
		},
		{
			name: "selective",
			raw:  `{"entity_type": "student", "entity_id": 7, "version_id": 31, "rollback_type": "selective", "selective_fields": ["guardian_phone"], ` + reason + `}`,
		},
		{
			name:  "version of another entity",
			raw:   `{"entity_type": "student", "entity_id": 7, "version_id": 34, "rollback_type": "full", ` + reason + `}`,
			codes: []string{codeVersionMismatch},
		},
		{
			name:  "current version",
			raw:   `{"entity_type": "student", "entity_id": 7, "version_id": 32, "rollback_type": "full", ` + reason + `}`,
			codes: []string{codeCurrentVersion},
		},
		{
			name:  "expired version",
			raw:   `{"entity_type": "student", "entity_id": 7, "version_id": 33, "rollback_type": "full", ` + reason + `}`,
			codes: []string{codeVersionTooOld},
		},
		{
			name:  "empty snapshot",
			raw:   `{"entity_type": "student", "entity_id": 7, "version_id": 35, "rollback_type": "full", ` + reason + `}`,
			codes: []string{codeSnapshotEmpty},
		},
		{
			name:  "selective without fields",
			raw:   `{"entity_type": "student", "entity_id": 7, "version_id": 31, "rollback_type": "selective", ` + reason + `}`,
			codes: []string{engine.CodeRequiredIf},
		},
		{
			name:  "high risk without approver",
			raw:   `{"entity_type": "student", "entity_id": 7, "version_id": 31, "rollback_type": "full", "risk_level": "high", ` + reason + `}`,
			codes: []string{engine.CodeEscalationRequired, "approval_required"},
		},
		{
			name: "high risk approved",
			raw: `{"entity_type": "student", "entity_id": 7, "version_id": 31, "rollback_type": "full", "risk_level": "high",
				"requires_approval": true, "approver_id": 1, ` + reason + `}`,
		},
	})
}

func TestRollbackRules_unknownFields(t *testing.T) {
	v := newValidator(t, DefaultOptions())

	res := validate(t, v, principal, engine.KindRollback, engine.OpRollback,
		`{"entity_type": "student", "entity_id": 7, "version_id": 31, "rollback_type": "selective",
		"selective_fields": ["gpa"], "reason": "Restore the grade point average"}`)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, engine.InconsistentReference, res.Failures[0].Kind)
	assert.Equal(t, "selective_fields", res.Failures[0].Field)
	assert.Equal(t, "selective_fields contains fields missing from the snapshot: gpa", res.Failures[0].Message)

	res = validate(t, v, principal, engine.KindRollback, engine.OpRollback,
		`{"entity_type": "student", "entity_id": 7, "version_id": 31, "rollback_type": "selective",
		"selective_fields": ["class_ids", "name"], "reason": "Restore the class assignment"}`)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, codeUnknownFields, res.Failures[0].Code)
	assert.Contains(t, res.Failures[0].Message, "class_ids (did you mean class_id?)")
}

func TestClosest(t *testing.T) {
	candidates := []string{"class_id", "guardian_phone", "name"}
	assert.Equal(t, "class_id", closest("class_ids", candidates))
	assert.Equal(t, "guardian_phone", closest("guardian_phon", candidates))
	assert.Equal(t, "", closest("gpa", candidates))
}
