package metrics

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IncAndValue(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, int64(0), r.Value("metric/country/from_spider_name"))

	r.Inc("metric/country/from_spider_name")
	r.Inc("metric/country/from_spider_name")
	r.Inc("metric/country/from_website_url")

	assert.Equal(t, int64(2), r.Value("metric/country/from_spider_name"))
	assert.Equal(t, int64(1), r.Value("metric/country/from_website_url"))
	assert.Len(t, r.Snapshot(), 2)
}

func TestRegistry_ValueDoesNotCreate(t *testing.T) {
	r := NewRegistry()
	_ = r.Value("never")
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_ConcurrentInc(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Inc("metric/records/processed")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5000), r.Value("metric/records/processed"))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Inc("metric/country/from_website_url")
	r.Histogram("record_duration_seconds", "Record processing time", []float64{0.001, 0.01}).Observe(0.005)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, body, "metric_country_from_website_url 1")
	assert.Contains(t, body, `record_duration_seconds_bucket{le="0.01"} 1`)
	assert.Contains(t, body, `record_duration_seconds_bucket{le="+Inf"} 1`)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
}
