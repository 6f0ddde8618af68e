package school

import (
	"github.com/trezcool/masomo-guard/core/engine"
)

func studentRuleSets(opts Options) []engine.RuleSet {
	fields := []engine.FieldRule{
		engine.Required("name", engine.String, "max=120"),
		engine.Optional("email", engine.Lower, "email,max=255"),
		engine.Required("admission_number", engine.String, "alphanum_,max=30"),
		engine.Optional("national_id", engine.String, "len=12,numeric"),
		engine.Required("date_of_birth", engine.Date),
		engine.Required("admission_date", engine.Date),
		engine.Required("class_id", engine.Int, "gt=0"),
		engine.Optional("gender", engine.Lower, "oneof=male female other"),
		engine.Optional("guardian_name", engine.String, "max=120"),
		engine.Optional("guardian_phone", engine.String, "phone"),
		engine.Optional("status", engine.Lower, "oneof=active inactive graduated transferred"),
	}
	checks := []engine.Check{
		NationalID("national_id", opts.StudentIDOrder),
		engine.After("admission_date", "date_of_birth"),
		engine.AgeBetween("date_of_birth", "admission_date", 3, 25),
		engine.NotInFuture("date_of_birth"),
		engine.NotInFuture("admission_date"),
	}
	cross := []engine.CrossRule{
		engine.Exists("class_id", engine.EntityClass),
		engine.Unique("admission_number", engine.EntityStudent),
		engine.Unique("email", engine.EntityStudent),
		engine.Unique("national_id", engine.EntityStudent),
	}

	return []engine.RuleSet{
		{
			Key:         engine.Key(engine.KindStudent, engine.OpCreate),
			Description: "Student registration",
			Fields:      fields,
			Checks:      checks,
			Cross:       cross,
		},
		{
			Key:         engine.Key(engine.KindStudent, engine.OpUpdate),
			Description: "Student record update",
			Fields:      forUpdate(fields),
			Checks:      checks,
			Cross:       append([]engine.CrossRule{engine.Exists("id", engine.EntityStudent)}, cross...),
		},
	}
}

func teacherRuleSets(opts Options) []engine.RuleSet {
	fields := []engine.FieldRule{
		engine.Required("name", engine.String, "max=120"),
		engine.Required("email", engine.Lower, "email,max=255"),
		engine.Required("employee_code", engine.String, "alphanum_,max=20"),
		engine.Optional("national_id", engine.String, "len=12,numeric"),
		engine.Optional("phone", engine.String, "phone"),
		engine.Required("date_of_birth", engine.Date),
		engine.Required("joining_date", engine.Date),
		engine.Optional("qualification", engine.Lower, "oneof=certificate diploma bachelors masters doctorate"),
		engine.Optional("specialization", engine.String, "max=120"),
		engine.Optional("salary", engine.Decimal, "gt=0"),
		engine.Optional("status", engine.Lower, "oneof=active inactive on_leave terminated"),
	}
	checks := []engine.Check{
		NationalID("national_id", opts.TeacherIDOrder),
		engine.After("joining_date", "date_of_birth"),
		engine.AgeBetween("date_of_birth", "joining_date", 18, 0),
		engine.NotInFuture("joining_date"),
	}
	cross := []engine.CrossRule{
		engine.Unique("email", engine.EntityTeacher),
		engine.Unique("employee_code", engine.EntityTeacher),
		engine.Unique("national_id", engine.EntityTeacher),
	}

	return []engine.RuleSet{
		{
			Key:         engine.Key(engine.KindTeacher, engine.OpCreate),
			Description: "Teacher registration",
			Fields:      fields,
			Checks:      checks,
			Cross:       cross,
		},
		{
			Key:         engine.Key(engine.KindTeacher, engine.OpUpdate),
			Description: "Teacher record update",
			Fields:      forUpdate(fields),
			Checks:      checks,
			Cross:       append([]engine.CrossRule{engine.Exists("id", engine.EntityTeacher)}, cross...),
		},
	}
}
