package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateOutputPath validates a path that an image will be written to.
//
// The rules are conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 500 characters
//   - A file extension must be present (it selects the image format)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if filepath.Ext(path) == "" {
		return New(ErrCodeInvalidPath, "output path %q has no extension to infer the format from", path)
	}
	return nil
}

// ValidateIdentifier validates a matrix row/column identifier.
// Identifiers end up in tick labels, DOT files and TSV output, so tabs
// and newlines are rejected.
func ValidateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidMatrix, "identifier cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidMatrix, "identifier too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidMatrix, "identifier %q contains control characters", id)
		}
	}
	return nil
}

// ValidateRange checks user-supplied colour scale bounds.
// Either bound may be nil. Equal bounds are allowed; the renderer applies a
// minimum scale width.
func ValidateRange(vmin, vmax *float64) error {
	for _, v := range []*float64{vmin, vmax} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return New(ErrCodeInvalidRange, "scale bounds must be finite")
		}
	}
	if vmin != nil && vmax != nil && *vmin > *vmax {
		return New(ErrCodeInvalidRange, "vmin %g is greater than vmax %g", *vmin, *vmax)
	}
	return nil
}
