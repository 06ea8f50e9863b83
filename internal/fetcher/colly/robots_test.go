package collyfetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
)

type scriptedTripper struct {
	errs  []error
	calls int
}

func (s *scriptedTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	defer func() { s.calls++ }()
	if s.calls < len(s.errs) && s.errs[s.calls] != nil {
		return nil, s.errs[s.calls]
	}
	return httptest.NewRecorder().Result(), nil
}

func fastState() *robotsProbeState {
	return &robotsProbeState{backoff: []time.Duration{time.Millisecond, time.Millisecond}}
}

func TestRobotsProbeFallsBackToAllowAll(t *testing.T) {
	t.Parallel()
	state := fastState()
	base := &scriptedTripper{errs: []error{context.DeadlineExceeded, context.DeadlineExceeded, context.DeadlineExceeded}}
	tr := &robotsAwareTransport{base: base, state: state}

	resp, err := tr.RoundTrip(httptest.NewRequest(http.MethodGet, "https://example.com/robots.txt", nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, allowAllRobots, string(body))
	require.Equal(t, 3, base.calls)

	var out fetcher.Response
	state.apply(&out)
	require.Equal(t, fetcher.RobotsStatusIndeterminate, out.RobotsStatus)
	require.Equal(t, robotsFallbackReasonTLSHandshake, out.RobotsReason)
}

func TestRobotsProbeRecovers(t *testing.T) {
	t.Parallel()
	state := fastState()
	base := &scriptedTripper{errs: []error{context.DeadlineExceeded}}
	tr := &robotsAwareTransport{base: base, state: state}

	resp, err := tr.RoundTrip(httptest.NewRequest(http.MethodGet, "https://example.com/robots.txt", nil))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, 2, base.calls)
	require.Equal(t, fetcher.RobotsStatusUnknown, state.status)
}

func TestRobotsProbeFailsFastOnPermanentErrors(t *testing.T) {
	t.Parallel()
	base := &scriptedTripper{errs: []error{errors.New("connection refused")}}
	tr := &robotsAwareTransport{base: base, state: fastState()}

	_, err := tr.RoundTrip(httptest.NewRequest(http.MethodGet, "https://example.com/robots.txt", nil))
	require.Error(t, err)
	require.Equal(t, 1, base.calls)
}

func TestRobotsTransportPassesOtherPaths(t *testing.T) {
	t.Parallel()
	base := &scriptedTripper{}
	tr := &robotsAwareTransport{base: base, state: fastState()}

	resp, err := tr.RoundTrip(httptest.NewRequest(http.MethodGet, "https://example.com/geo/atlas/all", nil))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, 1, base.calls)
}
