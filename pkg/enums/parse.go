package enums

import (
	"fmt"
	"slices"
	"strings"
)

// parse matches value against known after fold is applied; kind names the
// enum in the error.
func parse[T ~string](kind, value string, known []T, fold func(string) string) (T, error) {
	candidate := T(fold(strings.TrimSpace(value)))
	if slices.Contains(known, candidate) {
		return candidate, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}

func identity(s string) string { return s }
