package main

import (
	"errors"
	"os"

	"github.com/aretw0/logbook/pkg/core"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errDeclined is a soft failure: the user said no, or nothing matched the request.
var errDeclined = errors.New("nothing done")

func main() {
	os.Exit(Execute(os.Args[1:]))
}

// exitCode maps an error to the process outcome. Bad input, unknown or ambiguous ids are
// usage errors; everything else (sync diagnostics, declined or aborted operations) is soft.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrAmbiguousID),
		errors.Is(err, core.ErrEmptyInput):
		return exitUsage
	default:
		return exitFailure
	}
}
