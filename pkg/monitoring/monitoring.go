package monitoring

import (
	"net/http"
	"runtime"
	"strconv"

	pp "net/http/pprof"

	"github.com/gorilla/mux"

	"github.com/abbensid2/alltheplaces/pkg/metrics"
)

// ResponseWriter wrapper to capture status codes
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(statusCode int) {
	sw.statusCode = statusCode
	sw.ResponseWriter.WriteHeader(statusCode)
}

// Middleware records request latency and a per-status-class request counter
// (http_requests_2xx and so on) into the registry.
func Middleware(registry *metrics.Registry) mux.MiddlewareFunc {
	latency := registry.Histogram("http_request_duration_seconds", "HTTP request latency",
		[]float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := latency.Start()
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)
			timer.Observe()
			registry.Inc("http_requests_" + strconv.Itoa(sw.statusCode/100) + "xx")
		})
	}
}

// RegisterPprof mounts the standard pprof handlers under /debug/pprof/.
func RegisterPprof(r *mux.Router) {
	r.HandleFunc("/debug/pprof/cmdline", pp.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pp.Profile)
	r.HandleFunc("/debug/pprof/symbol", pp.Symbol)
	r.HandleFunc("/debug/pprof/trace", pp.Trace)
	r.PathPrefix("/debug/pprof/").HandlerFunc(pp.Index)
}

// EnableProfiling toggles block and mutex profiling.
func EnableProfiling(enabled bool) {
	if enabled {
		runtime.SetBlockProfileRate(1)
		runtime.SetMutexProfileFraction(5)
		return
	}
	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)
}
