package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded by [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := SanitizeString(r.URL.Query().Get(key), 16)
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(strings.TrimPrefix(raw, "+"))
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{key: "must be an integer"})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{key: "out of range", "min": min, "max": max})
	}
	return value, nil
}
