package httpx

import (
	"io"
	"net/http"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// ReadinessReport describes which integrations are configured.
type ReadinessReport struct {
	Status   string `json:"status"`
	Adverity bool   `json:"adverity"`
	AuditLog bool   `json:"audit_log"`
	Missing  string `json:"missing,omitempty"`
}

// readyHandler reports 503 until Adverity is configured. A missing audit log is
// reported but does not fail readiness.
func readyHandler(fetch FetchSubmitter, auditEnabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := ReadinessReport{Status: "ok", Adverity: true, AuditLog: auditEnabled}
		if err := fetch.Ready(); err != nil {
			report.Status = "degraded"
			report.Adverity = false
			report.Missing = err.Error()
			WriteJSON(w, http.StatusServiceUnavailable, report)
			return
		}
		WriteJSON(w, http.StatusOK, report)
	}
}
