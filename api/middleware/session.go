package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/merch-checkout/api/responses"
	"github.com/angelmondragon/merch-checkout/internal/sessions"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

const SessionIDHeader = "X-Session-Id"

// Session resolves the shopper session from X-Session-Id, minting one when the
// header is absent. The id is echoed back so clients can keep it.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(SessionIDHeader))
			if id == "" {
				id = sessions.NewID()
			} else if !sessions.ValidID(id) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id").
					WithDetails(map[string]any{"header": SessionIDHeader}))
				return
			}

			w.Header().Set(SessionIDHeader, id)

			ctx := WithSessionID(r.Context(), id)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
