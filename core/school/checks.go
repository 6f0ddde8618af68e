package school

import (
	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/checksum"
	"github.com/trezcool/masomo-guard/core/engine"
)

const (
	codeChecksum        = "checksum"
	codeDelegateTarget  = "delegate_target"
	codeSnapshotEmpty   = "snapshot_empty"
	codeCurrentVersion  = "current_version"
	codeVersionTooOld   = "version_too_old"
	codeUnknownFields   = "unknown_fields"
	codeVersionMismatch = "version_mismatch"
)

func init() {
	core.RegisterCustomTranslation(codeChecksum, "{0} has an invalid check digit")
	core.RegisterCustomTranslation(codeDelegateTarget, "{0} cannot be {1}")
	core.RegisterCustomTranslation(codeSnapshotEmpty, "{0} points to an empty snapshot")
	core.RegisterCustomTranslation(codeCurrentVersion, "{0} is already the current version")
	core.RegisterCustomTranslation(codeVersionTooOld, "{0} is older than {1} and can no longer be restored")
	core.RegisterCustomTranslation(codeUnknownFields, "{0} contains fields missing from the snapshot: {1}")
	core.RegisterCustomTranslation(codeVersionMismatch, "{0} does not belong to {1}")
}

// NationalID validates the Verhoeff check digit of a 12 digit national id, processing the digits
// in the given order. A malformed id is left to the field's tag.
func NationalID(field string, order checksum.Order) engine.Check {
	return engine.Check{
		Name: field + " verhoeff " + order.String(),
		Eval: func(r engine.Record) []engine.Failure {
			id, ok := r.String(field)
			if !ok || checksum.Valid(id, order) {
				return nil
			}
			return []engine.Failure{engine.Fail(engine.FormatViolation, r.Path(field), codeChecksum)}
		},
	}
}
