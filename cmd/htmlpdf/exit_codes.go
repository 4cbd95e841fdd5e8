package main

import (
	"errors"
	"os"

	htmlpdf "github.com/porticus-lab/go-native-html-pdf"
)

// Exit codes for the htmlpdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or page size
	ExitIO      = 3 // File not found, permission denied, write failure
	ExitEngine  = 4 // Browser/engine errors
	ExitBusy    = 5 // Another conversion owns the render surface
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, htmlpdf.ErrBusy) {
		return ExitBusy
	}

	// Engine errors (exit 4)
	if errors.Is(err, ErrStartEngine) ||
		errors.Is(err, htmlpdf.ErrNavigation) ||
		errors.Is(err, htmlpdf.ErrSurfaceLost) ||
		errors.Is(err, htmlpdf.ErrNoHost) ||
		errors.Is(err, htmlpdf.ErrCapture) ||
		errors.Is(err, htmlpdf.ErrUnsupportedPlatform) ||
		errors.Is(err, htmlpdf.ErrTimeout) ||
		errors.Is(err, htmlpdf.ErrClosed) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, htmlpdf.ErrIO) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrConfig) ||
		errors.Is(err, ErrInvalidPageSize) {
		return ExitUsage
	}

	return ExitGeneral
}
