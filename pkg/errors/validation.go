package errors

import (
	"slices"
	"strings"
	"unicode"
)

// ValidateProjectPath checks a project root given on the command line or in
// an API request. Both absolute and relative paths are accepted.
func ValidateProjectPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "project path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "project path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "project path contains invalid characters")
		}
	}
	return nil
}

// ValidateManagerName checks that name is one of the available package
// manager names. The error lists the valid names.
func ValidateManagerName(name string, available []string) error {
	if name == "" {
		return New(ErrCodeInvalidPackageManager, "package manager name cannot be empty")
	}
	if !slices.Contains(available, name) {
		return New(ErrCodeInvalidPackageManager, "unknown package manager %q (available: %s)",
			name, strings.Join(available, ", "))
	}
	return nil
}

// ValidateChoice checks that value is one of valid. option names the
// setting in the error message.
func ValidateChoice(option, value string, valid []string) error {
	if !slices.Contains(valid, value) {
		quoted := make([]string, len(valid))
		for i, v := range valid {
			quoted[i] = "'" + v + "'"
		}
		return New(ErrCodeInvalidOption, "invalid %s '%s': valid values are %s",
			option, value, strings.Join(quoted, ", "))
	}
	return nil
}

// ValidateLicenseQuery checks a license name or expression received from a
// client before it is matched.
func ValidateLicenseQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return New(ErrCodeInvalidOption, "license query cannot be empty")
	}
	if len(q) > 512 {
		return New(ErrCodeInvalidOption, "license query too long (max 512 characters)")
	}
	for _, r := range q {
		if r == 0 || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidOption, "license query contains invalid control characters")
		}
	}
	return nil
}
