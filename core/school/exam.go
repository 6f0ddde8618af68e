package school

import (
	"github.com/trezcool/masomo-guard/core/engine"
)

func examRuleSets() []engine.RuleSet {
	fields := []engine.FieldRule{
		engine.Required("class_id", engine.Int, "gt=0"),
		engine.Required("subject", engine.String, "max=100"),
		engine.Optional("exam_type", engine.Lower, "oneof=unit_test midterm final practical assignment"),
		engine.Required("exam_date", engine.Date),
		engine.Optional("start_time", engine.Clock),
		engine.Optional("end_time", engine.Clock),
		engine.Required("total_marks", engine.Decimal, "gt=0,lte=1000"),
		engine.Optional("passing_marks", engine.Decimal, "min=0"),
		engine.Optional("academic_year", engine.String, "academic_year"),
	}
	checks := []engine.Check{
		engine.After("end_time", "start_time"),
		engine.RequiredWith("end_time", "start_time"),
		engine.AtMost("passing_marks", "total_marks"),
		engine.AcademicYearSequential("academic_year"),
	}
	cross := []engine.CrossRule{
		engine.Exists("class_id", engine.EntityClass),
		engine.Duplicate(engine.EntityExam, "class_id", "subject", "exam_date"),
	}

	return []engine.RuleSet{
		{
			Key:         engine.Key(engine.KindExam, engine.OpCreate),
			Description: "Exam scheduling",
			Fields:      fields,
			Checks:      checks,
			Cross:       cross,
		},
		{
			Key:         engine.Key(engine.KindExam, engine.OpUpdate),
			Description: "Exam rescheduling",
			Fields:      forUpdate(fields),
			Checks:      checks,
			Cross:       append([]engine.CrossRule{engine.Exists("id", engine.EntityExam)}, cross...),
		},
	}
}
