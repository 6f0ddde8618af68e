package school

import (
	"github.com/trezcool/masomo-guard/core/engine"
)

func payrollRuleSets() []engine.RuleSet {
	line := &engine.ItemSchema{
		Fields: []engine.FieldRule{
			engine.Required("name", engine.String, "max=60"),
			engine.Required("amount", engine.Decimal, "gt=0"),
		},
		Distinct: []string{"name"},
	}
	fields := []engine.FieldRule{
		engine.Required("teacher_id", engine.Int, "gt=0"),
		engine.Required("month", engine.Int, "min=1,max=12"),
		engine.Required("year", engine.Int, "min=2000,max=2100"),
		engine.Required("basic_salary", engine.Decimal, "gt=0"),
		{Field: "allowances", Type: engine.List, Items: line},
		engine.Required("gross_salary", engine.Decimal, "gt=0"),
		{Field: "deductions", Type: engine.List, Items: line},
		engine.Required("net_salary", engine.Decimal, "min=0"),
		engine.Required("payment_mode", engine.Lower, "oneof=bank_transfer cash cheque"),
		engine.Optional("bank_account", engine.String, "alphanum_,max=34"),
		engine.Optional("cheque_number", engine.String, "alphanum_,max=20"),
		engine.Optional("payment_date", engine.Date),
		engine.Optional("status", engine.Lower, "oneof=draft pending processed paid"),
	}
	gross := engine.Plus(engine.Amount("basic_salary"), engine.SumItems("allowances", "amount"))
	checks := []engine.Check{
		engine.Reconciles("gross_salary", gross),
		engine.Reconciles("net_salary", engine.Minus(engine.Amount("gross_salary"), engine.SumItems("deductions", "amount"))),
		engine.RequiredIf("bank_account", "payment_mode", "bank_transfer"),
		engine.RequiredIf("cheque_number", "payment_mode", "cheque"),
		engine.RequiredIf("payment_date", "status", "paid"),
	}
	cross := []engine.CrossRule{
		engine.Exists("teacher_id", engine.EntityTeacher),
		engine.StatusIn("teacher_id", engine.EntityTeacher, "active"),
		engine.Duplicate(engine.EntityPayroll, "teacher_id", "month", "year"),
	}

	return []engine.RuleSet{
		{
			Key:         engine.Key(engine.KindPayroll, engine.OpCreate),
			Description: "Monthly payroll run",
			Fields:      fields,
			Checks:      checks,
			Cross:       cross,
		},
		{
			Key:         engine.Key(engine.KindPayroll, engine.OpUpdate),
			Description: "Payroll correction; processed and paid runs are frozen",
			Fields:      forUpdate(fields),
			Checks:      checks,
			Cross: append([]engine.CrossRule{
				engine.Exists("id", engine.EntityPayroll),
				engine.StatusNotIn("id", engine.EntityPayroll, "processed", "paid"),
			}, cross...),
		},
	}
}
