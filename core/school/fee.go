package school

import (
	"github.com/trezcool/masomo-guard/core/engine"
)

func feeRuleSets() []engine.RuleSet {
	fields := []engine.FieldRule{
		engine.Required("student_id", engine.Int, "gt=0"),
		engine.Required("class_id", engine.Int, "gt=0"),
		engine.Required("fee_type", engine.Lower, "oneof=tuition transport library exam hostel sports other"),
		engine.Required("academic_year", engine.String, "academic_year"),
		engine.Optional("term", engine.Lower, "oneof=term1 term2 term3"),
		engine.Optional("month", engine.Int, "min=1,max=12"),
		engine.Required("amount", engine.Decimal, "gt=0"),
		engine.Optional("tax_percentage", engine.Decimal, "min=0,max=100"),
		engine.Optional("tax_amount", engine.Decimal, "min=0"),
		engine.Optional("concession_percentage", engine.Decimal, "min=0,max=100"),
		engine.Optional("concession_amount", engine.Decimal, "min=0"),
		{
			Field: "installments",
			Type:  engine.List,
			Items: &engine.ItemSchema{
				Fields: []engine.FieldRule{
					engine.Required("amount", engine.Decimal, "gt=0"),
					engine.Required("due_date", engine.Date),
				},
				Max: 12,
			},
		},
		engine.Required("due_date", engine.Date),
		engine.Optional("payment_date", engine.Date),
		engine.Required("status", engine.Lower, "oneof=pending paid partial overdue waived"),
		engine.Optional("paid_amount", engine.Decimal, "min=0"),
		engine.Optional("payment_method", engine.Lower, "oneof=cash bank_transfer cheque mobile_money card"),
		engine.Optional("waiver_reason", engine.String, "max=500"),
		engine.Optional("approved_by", engine.Int, "gt=0"),
		engine.Optional("remarks", engine.String, "max=500"),
	}
	checks := []engine.Check{
		engine.AcademicYearSequential("academic_year"),
		engine.Reconciles("tax_amount", engine.PercentOf("amount", "tax_percentage")),
		engine.Reconciles("concession_amount", engine.PercentOf("amount", "concession_percentage")),
		engine.ReconcilesTotal("installments", "amount", "amount"),
		engine.Ascending("installments", "due_date"),
		engine.AtMost("paid_amount", "amount"),
		engine.RequiredIf("paid_amount", "status", "paid", "partial"),
		engine.RequiredIf("payment_date", "status", "paid"),
		engine.NotInFuture("payment_date"),
	}
	cross := []engine.CrossRule{
		engine.Exists("student_id", engine.EntityStudent),
		engine.StatusIn("student_id", engine.EntityStudent, "active"),
		engine.Exists("class_id", engine.EntityClass),
		engine.ReferenceMatches("class_id", "student_id", engine.EntityStudent, "class_id"),
		engine.Exists("approved_by", engine.EntityUser),
		engine.Duplicate(engine.EntityFee, "student_id", "fee_type", "academic_year", "term", "month"),
	}

	return []engine.RuleSet{
		{
			Key:         engine.Key(engine.KindFee, engine.OpCreate),
			Description: "Fee assignment",
			Fields:      fields,
			Checks:      checks,
			Cross:       cross,
		},
		{
			Key:         engine.Key(engine.KindFee, engine.OpUpdate),
			Description: "Fee update; paid fees are frozen",
			Fields:      forUpdate(fields),
			Checks:      checks,
			Cross: append([]engine.CrossRule{
				engine.Exists("id", engine.EntityFee),
				engine.StatusNotIn("id", engine.EntityFee, "paid"),
			}, cross...),
		},
	}
}
