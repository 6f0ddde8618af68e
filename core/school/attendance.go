package school

import (
	"github.com/trezcool/masomo-guard/core/engine"
)

// mark holds the fields of one attendance mark, shared by single and bulk marking.
func mark() ([]engine.FieldRule, []engine.Check) {
	fields := []engine.FieldRule{
		engine.Required("student_id", engine.Int, "gt=0"),
		engine.Required("status", engine.Lower, "oneof=present absent late excused half_day"),
		engine.Optional("time_in", engine.Clock),
		engine.Optional("time_out", engine.Clock),
		engine.Optional("reason", engine.String, "max=255"),
		engine.Optional("remarks", engine.String, "max=500"),
	}
	checks := []engine.Check{
		engine.After("time_out", "time_in"),
		engine.RequiredIf("time_in", "status", "late", "half_day"),
		engine.RequiredIf("reason", "status", "excused"),
	}
	return fields, checks
}

var session = engine.Optional("session", engine.Lower, "oneof=morning afternoon full_day")

func attendanceRuleSets(opts Options) []engine.RuleSet {
	markFields, markChecks := mark()

	fields := append([]engine.FieldRule{
		engine.Required("class_id", engine.Int, "gt=0"),
		engine.Required("date", engine.Date),
		session,
	}, markFields...)
	checks := append([]engine.Check{engine.NotInFuture("date")}, markChecks...)

	// per mark
	markCross := []engine.CrossRule{
		engine.Exists("student_id", engine.EntityStudent),
		engine.StatusIn("student_id", engine.EntityStudent, "active"),
		engine.ReferenceMatches("class_id", "student_id", engine.EntityStudent, "class_id"),
		engine.Duplicate(engine.EntityAttendance, "student_id", "date", "session"),
	}
	// per class
	classCross := []engine.CrossRule{
		engine.Exists("class_id", engine.EntityClass),
		engine.OwnerOrElevated("class_id", engine.EntityClass, "teacher_id"),
	}

	return []engine.RuleSet{
		{
			Key:         engine.Key(engine.KindAttendance, engine.OpCreate),
			Description: "Attendance mark",
			Fields:      fields,
			Checks:      checks,
			Cross:       append(append([]engine.CrossRule{}, markCross...), classCross...),
		},
		{
			Key:         engine.Key(engine.KindAttendance, engine.OpUpdate),
			Description: "Attendance correction",
			Fields:      forUpdate(fields),
			Checks:      checks,
			Cross: append(append([]engine.CrossRule{
				engine.Exists("id", engine.EntityAttendance),
			}, markCross...), classCross...),
		},
		{
			Key:         engine.Key(engine.KindAttendance, engine.OpBulk),
			Description: "Whole class attendance",
			Fields: []engine.FieldRule{
				engine.Required("class_id", engine.Int, "gt=0"),
				engine.Required("date", engine.Date),
				session,
				{
					Field:    "attendance",
					Type:     engine.List,
					Required: true,
					Items: &engine.ItemSchema{
						Fields:   markFields,
						Checks:   markChecks,
						Min:      1,
						Max:      opts.BulkMaxItems,
						Distinct: []string{"student_id"},
						Inherit:  []string{"class_id", "date", "session"},
					},
				},
			},
			Checks:    []engine.Check{engine.NotInFuture("date")},
			Cross:     classCross,
			ItemCross: map[string][]engine.CrossRule{"attendance": markCross},
		},
	}
}
