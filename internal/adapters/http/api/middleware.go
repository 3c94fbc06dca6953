package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/sportsintel/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class for
// endpoint. The endpoint is a fixed label so run ids never reach metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))

		if kind, severity, ok := classify(rec.status); ok {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
			metrics.RecordErrorByType(kind, severity)
		}
	}
}

// classify maps an error status to a metrics kind and severity. A 409 only
// comes from run-manual while a run is in progress.
func classify(status int) (kind, severity string, ok bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", "", false
	case status == http.StatusConflict:
		return "already_running", "low", true
	case status == http.StatusNotFound:
		return "not_found", "low", true
	case status == http.StatusTooManyRequests:
		return "rate_limit", "medium", true
	case status < http.StatusInternalServerError:
		return "client_error", "medium", true
	default:
		return "server_error", "high", true
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}
