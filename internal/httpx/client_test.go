package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

func TestGetSendsHeadersAndReadsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		require.Equal(t, "atlas-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"email":"a@b.c"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(Options{Name: "kakao", UserAgent: "atlas-test"})
	var out struct {
		Email string `json:"email"`
	}
	err := c.GetJSON(context.Background(), srv.URL, http.Header{"Authorization": {"Bearer abc"}}, &out)
	require.NoError(t, err)
	require.Equal(t, "a@b.c", out.Email)
}

func TestGetReturnsStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := New(Options{Name: "geo", FailureThreshold: 1})
	_, err := c.Get(context.Background(), srv.URL, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Code)
	require.Equal(t, gobreaker.StateClosed, c.State(), "4xx must not open the breaker")
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := New(Options{Name: "verse", FailureThreshold: 2, OpenTimeout: time.Minute})
	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), srv.URL, nil)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, c.State())

	_, err := c.Get(context.Background(), srv.URL, nil)
	require.True(t, errors.Is(err, gobreaker.ErrOpenState))
	require.Equal(t, int32(2), hits.Load())
}
