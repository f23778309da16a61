package coilgun

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownVariant indicates a genome tag naming no implemented variant.
	ErrUnknownVariant = errors.New("coilgun: unknown variant")

	// ErrNonPhysical indicates parameters no real coilgun can have.
	ErrNonPhysical = errors.New("coilgun: non-physical parameter")
)

// UnknownVariantError reports the tag and value that failed to decode.
type UnknownVariantError struct {
	Tag   string
	Value string
	Known []string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("coilgun: %s %q is not implemented (known: %s)", e.Tag, e.Value, strings.Join(e.Known, ", "))
}

func (e *UnknownVariantError) Is(target error) bool {
	return target == ErrUnknownVariant
}
