package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
)

// ParseIndexParam reads a non-negative integer route parameter such as a cart line index.
func ParseIndexParam(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return 0, pkgerrors.InvalidField(key, "path parameter required")
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.InvalidField(key, "path parameter must be numeric")
	}
	if value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter out of range").WithDetails(map[string]any{"field": key, "min": 0})
	}
	return value, nil
}
