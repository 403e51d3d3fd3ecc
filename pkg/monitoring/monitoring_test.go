package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/abbensid2/alltheplaces/pkg/metrics"
)

func TestMiddleware_CountsByStatusClass(t *testing.T) {
	reg := metrics.NewRegistry()
	r := mux.NewRouter()
	r.Use(Middleware(reg))
	r.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.HandleFunc("/bad", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) })

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, int64(2), reg.Value("http_requests_2xx"))
	assert.Equal(t, int64(1), reg.Value("http_requests_4xx"))
	assert.Equal(t, uint64(3), reg.Histogram("http_request_duration_seconds", "", nil).Count())
}

func TestRegisterPprof(t *testing.T) {
	r := mux.NewRouter()
	RegisterPprof(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
