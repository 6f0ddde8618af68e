package school

import (
	"github.com/trezcool/masomo-guard/core/engine"
)

const documentTypes = "pdf image spreadsheet contract receipt other"

func auditRuleSets() []engine.RuleSet {
	return []engine.RuleSet{{
		Key:         engine.Key(engine.KindAudit, engine.OpCreate),
		Description: "Audit trail entry",
		Fields: []engine.FieldRule{
			engine.Required("entity_type", engine.Lower, "oneof=student teacher class fee attendance payroll"),
			engine.Required("entity_id", engine.Int, "gt=0"),
			engine.Required("action", engine.Lower, "oneof=create update delete restore"),
			engine.Required("description", engine.String, "min=10,max=1000"),
			engine.Optional("risk_level", engine.Lower, "oneof=low medium high critical"),
			engine.Optional("priority", engine.Lower, "oneof=low normal high critical"),
			{Field: "old_values", Type: engine.Map},
			{Field: "new_values", Type: engine.Map},
			engine.Optional("requires_approval", engine.Bool),
			engine.Optional("reviewer_id", engine.Int, "gt=0"),
			engine.Optional("emergency_contact", engine.String, "phone"),
			engine.Optional("verification_checklist", engine.Strings, "dive,notblank"),
			engine.Optional("justification", engine.String, "min=10,max=1000"),
			engine.Optional("documents", engine.Strings, "max=20,dive,notblank"),
			engine.Optional("document_types", engine.Strings, "max=20,dive,oneof="+documentTypes),
		},
		Checks: []engine.Check{
			engine.SameLength("documents", "document_types"),
			engine.RequiredWith("document_types", "documents"),
			engine.RequiredIf("old_values", "action", "update", "delete", "restore"),
			engine.RequiredIf("new_values", "action", "create", "update", "restore"),
		},
		Cross: []engine.CrossRule{
			engine.ExistsAs("entity_type", "entity_id"),
			engine.Exists("reviewer_id", engine.EntityUser),
			engine.StatusIn("reviewer_id", engine.EntityUser, "active"),
		},
	}}
}
