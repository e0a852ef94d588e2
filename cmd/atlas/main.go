// Package main provides the atlas CLI, the command line surface of the
// master plan toolkit.
// Implements: prd009-atlas-cli R1, R8.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "atlas:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode classifies an error as a user mistake or a system failure
// (prd009-atlas-cli R8).
func exitCode(err error) int {
	userErrors := []error{
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidData,
		types.ErrInvalidFilter,
		types.ErrInvalidGeometry,
		types.ErrGeographicCRS,
		types.ErrDuplicateID,
		types.ErrTableNotFound,
		types.ErrUnknownServiceType,
		types.ErrUnknownLandUse,
		types.ErrUnknownRunKind,
	}
	for _, sentinel := range userErrors {
		if errors.Is(err, sentinel) {
			return exitUserError
		}
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return exitUserError
	}
	return exitSysError
}

// usageError marks a malformed invocation, as opposed to a failure of
// the machinery underneath.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
