package common

import (
	"path/filepath"
	"strings"
)

// UnknownStr is returned by String methods for out-of-range enum values.
const UnknownStr = "unknown"

// FileAlias returns the alias for a file path: its base name without extension.
// Returns empty string if path is empty.
func FileAlias(path string) string {
	if path == "" {
		return ""
	}

	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
