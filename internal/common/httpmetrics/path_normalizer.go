package httpmetrics

import (
	"strings"

	"github.com/google/uuid"
)

var knownRoots = map[string]bool{
	"api":     true,
	"health":  true,
	"metrics": true,
	"debug":   true,
	"ws":      true,
}

// NormalizePath keeps label cardinality bounded: identifiers collapse to
// placeholders and paths outside the served roots collapse to "/other".
func NormalizePath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}

	parts := strings.Split(trimmed, "/")
	if !knownRoots[parts[0]] {
		return "/other"
	}

	for i, part := range parts {
		switch {
		case isUUID(part):
			parts[i] = "{id}"
		case isNumeric(part):
			parts[i] = "{param}"
		}
	}

	return "/" + strings.Join(parts, "/")
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
