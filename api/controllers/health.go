package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/orderdesk/api/responses"
	"github.com/angelmondragon/orderdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
)

const (
	envHeader    = "X-OrderDesk-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is anything the readiness check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyCheck names one dependency of the readiness check.
type ReadyCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency and fails on the first error.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		status := map[string]string{"status": "ready"}
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.Name+" unavailable").
					WithDetails(map[string]string{"dependency": check.Name}))
				return
			}
			status[check.Name] = "ok"
		}
		responses.WriteSuccess(w, status)
	}
}
