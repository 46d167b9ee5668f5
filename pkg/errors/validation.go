package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// plantIDRegex matches plant identifiers: short upper-case codes such as
// "TOM", "CUC" or "BEAN2".
var plantIDRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_-]{0,15}$`)

// ValidatePlantID validates a plant identifier used in catalogues and cells.
func ValidatePlantID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPlant, "plant id cannot be empty")
	}
	if !plantIDRegex.MatchString(id) {
		return New(ErrCodeInvalidPlant, "invalid plant id: %q (want 1-16 upper-case letters, digits, '-' or '_')", id)
	}
	return nil
}

// ValidateName validates a free-text display name (garden or bed).
//
// The validation rules are intentionally conservative:
//   - Maximum length of 128 characters
//   - No control characters
//
// Empty names are allowed; callers that require a name check for it.
func ValidateName(name string) error {
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// gardenIDRegex matches store document identifiers (UUIDs in canonical form).
var gardenIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateGardenID validates a stored garden identifier.
func ValidateGardenID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "garden id cannot be empty")
	}
	if !gardenIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid garden id: %q", id)
	}
	return nil
}
