package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned by a DataProvider when the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrUnsupported is returned by Validate for a (kind, operation) without a rule set.
	ErrUnsupported = errors.New("unsupported rule set")
)

// InfrastructureError means the engine could not check the record, as opposed to the record
// being invalid. It is the only error Validate returns for a known rule set.
type InfrastructureError struct {
	Op     string
	Entity EntityKind
	Err    error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

func infraError(op string, kind EntityKind, err error) error {
	var ie *InfrastructureError
	if errors.As(err, &ie) {
		return err
	}
	return &InfrastructureError{Op: op, Entity: kind, Err: err}
}

// IsInfrastructure reports whether err is (or wraps) an InfrastructureError.
func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}
