package http

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/handmind/internal/httputil"
	"go.uber.org/zap"
)

// Pinger checks that a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service liveness on /healthz.
type HealthHandler struct {
	DB     Pinger
	Logger *zap.Logger
}

// ServeHTTP responds 200 when the database answers a ping within two seconds
// and 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
		}
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
