package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/merch-checkout/api/responses"
	"github.com/angelmondragon/merch-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

// Pinger is any dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Merch-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the cart storage backend answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, storage Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Merch-Env", cfg.App.Env)
		if storage != nil {
			if err := storage.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage unavailable").
					WithDetails(map[string]any{"dependency": cfg.Storage.Backend}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "storage": cfg.Storage.Backend})
	}
}
