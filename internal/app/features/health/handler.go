// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger checks database reachability. *mongo.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type Handler struct {
	DB  Pinger
	Log *zap.Logger
}

func NewHandler(db Pinger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ServeLive reports that the process is up. It touches no dependency.
func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, http.StatusOK, probeResponse{Status: "ok"})
}

// ServeReady pings the primary. Failure detail goes to the log only.
func (h *Handler) ServeReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.DB.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Warn("readiness: mongo ping failed", zap.Error(err))
		httperr.JSON(w, http.StatusServiceUnavailable, probeResponse{
			Status: "unavailable",
			Checks: map[string]string{"database": "unreachable"},
		})
		return
	}
	httperr.JSON(w, http.StatusOK, probeResponse{
		Status: "ok",
		Checks: map[string]string{"database": "ok"},
	})
}
