package brk

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// StatezHandler returns an [http.Handler] that reports the breaker state of
// all pipelines registered with reg. It responds with 200 OK while every
// breaker admits calls, and 503 Service Unavailable while any breaker is
// open. The response body is always a JSON-encoded [StatesReport].
func StatezHandler(reg *Registry) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		report := reg.CheckStates()

		writer.Header().Set("Content-Type", "application/json")

		if report.Healthy {
			writer.WriteHeader(http.StatusOK)
		} else {
			writer.WriteHeader(http.StatusServiceUnavailable)
		}

		//nolint:errcheck // best-effort JSON encoding to HTTP response
		_ = json.NewEncoder(writer).Encode(report)
	})
}
