package shoppercontext

import (
	"context"
	"net/http"

	"github.com/angelmondragon/merch-checkout/api/middleware"
	"github.com/angelmondragon/merch-checkout/internal/sessions"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
)

// Resolver looks up or lazily creates a shopper session.
type Resolver interface {
	Get(ctx context.Context, id string) (*sessions.Session, error)
}

// ResolveSession loads the session named by the session middleware.
func ResolveSession(r *http.Request, resolver Resolver) (*sessions.Session, error) {
	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session registry unavailable")
	}
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required").
			WithDetails(map[string]any{"header": middleware.SessionIDHeader})
	}
	return resolver.Get(r.Context(), id)
}
