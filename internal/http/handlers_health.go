package httpx

import (
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
	Window string `json:"window,omitempty"`
}

// healthHandler reports liveness. When live is set, a window that is no longer
// displayed makes the check fail with 503.
func healthHandler(live func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, healthResponse{Status: "ok"}
		if live != nil {
			body.Window = "live"
			if !live() {
				status, body = http.StatusServiceUnavailable, healthResponse{Status: "degraded", Window: "closed"}
			}
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			return
		}
		WriteJSON(w, status, body)
	}
}
