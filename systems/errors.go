package systems

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

// InvariantError reports a defect in pairing or lifecycle bookkeeping.
// It is never an expected runtime condition.
type InvariantError struct {
	Op     string
	Entity ecs.Entity
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s for entity %d: %s", e.Op, e.Entity.ID(), e.Detail)
}

// IsInvariant reports whether err is or wraps an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// InvariantHandler receives invariant violations found while a system runs.
// It either panics or records the error and lets the system recover.
type InvariantHandler func(err error)

// PanicOnInvariant is the strict handler used by default and in tests.
func PanicOnInvariant(err error) {
	panic(err)
}
