package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateCoordinates rejects positions that contain NaN or infinite values.
// A single non-finite coordinate poisons the octree bounding box and, through
// the spring forces, every vertex it is connected to.
func ValidateCoordinates(x, y, z float64) error {
	for _, c := range [...]float64{x, y, z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return New(ErrCodeInvalidInput, "coordinate %v is not finite", c)
		}
	}
	return nil
}

// ValidateStrength validates a spring strength multiplier.
//
// Validation rules:
//   - Must be finite
//   - Must not be negative
func ValidateStrength(s float64) error {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return New(ErrCodeInvalidInput, "edge strength %v is not finite", s)
	}
	if s < 0 {
		return New(ErrCodeInvalidInput, "edge strength %v must not be negative", s)
	}
	return nil
}

// ValidateLevel checks that level addresses one of n layers.
func ValidateLevel(level, n int) error {
	if level < 0 || level >= n {
		return New(ErrCodeLayerNotFound, "layer %d out of range [0, %d)", level, n)
	}
	return nil
}

// ValidatePath validates an output path given by a user.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
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

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
