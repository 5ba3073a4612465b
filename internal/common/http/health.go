package http

import (
	"net/http"

	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

// HealthHandler reports liveness; stats, when set, is merged into the body.
func HealthHandler(log *logger.Logger, stats func() map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteErrorEnvelope(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil, TraceIDFromContext(r.Context()))
			return
		}

		body := map[string]any{"status": "ok"}
		if stats != nil {
			for k, v := range stats() {
				body[k] = v
			}
		}

		if log.ShouldLog(logger.DEBUG) {
			log.WithFields(r.Context(), logger.Fields{"action": "health_check"}).Debug("health check request")
		}
		WriteJSON(w, http.StatusOK, body)
	}
}
