package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, SanitizeSite(tc.input))
		})
	}
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/places/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/places/bethel", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418")))
	require.Positive(t, testutil.CollectAndCount(httpRequestDurationSeconds))
}

func TestStatusRecorderFlushes(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	w := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}
	w.Flush()
	require.True(t, rec.Flushed)
	require.Equal(t, rec, w.Unwrap())
}

func TestObserveCron(t *testing.T) {
	ObserveCron("test_task", 3, nil)
	ObserveCron("test_task", 0, errors.New("boom"))

	require.Equal(t, float64(1), testutil.ToFloat64(cronRunsTotal.WithLabelValues("test_task", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(cronRunsTotal.WithLabelValues("test_task", "error")))
	require.Equal(t, float64(3), testutil.ToFloat64(cronAffectedRows.WithLabelValues("test_task")))
}

func TestBreakerAndOutbound(t *testing.T) {
	SetBreakerState("test_client", 2)
	ObserveOutbound("test_client", "failure")

	require.Equal(t, float64(2), testutil.ToFloat64(breakerState.WithLabelValues("test_client")))
	require.Equal(t, float64(1), testutil.ToFloat64(outboundRequestsTotal.WithLabelValues("test_client", "failure")))
}

func FuzzSanitizeSite(f *testing.F) {
	for _, tc := range []string{"http://example.com", "https://openbible.info", "ftp://example.com"} {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
