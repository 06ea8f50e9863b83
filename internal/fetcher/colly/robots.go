package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
	"github.com/JakeFAU/bible-atlas-api/internal/metrics"
)

const (
	robotsFallbackReasonTLSHandshake = "TLS handshake timeout"
	allowAllRobots                   = "User-agent: *\nAllow: /"
)

var defaultRobotsBackoff = []time.Duration{
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// robotsAwareTransport retries robots.txt probes that time out and, when
// they keep failing, answers with an allow-all file so the page fetch can
// proceed. The fallback is recorded on the fetch response.
type robotsAwareTransport struct {
	base  http.RoundTripper
	state *robotsProbeState
}

func (t *robotsAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil || req.URL == nil {
		return nil, errors.New("robots transport: nil request")
	}
	if t.state == nil || !strings.EqualFold(req.URL.Path, "/robots.txt") {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("robots transport: %w", err)
		}
		return resp, nil
	}
	return t.state.probe(req, t.base)
}

type robotsProbeState struct {
	backoff []time.Duration
	status  fetcher.RobotsStatus
	reason  string
}

func newRobotsProbeState() *robotsProbeState {
	return &robotsProbeState{backoff: defaultRobotsBackoff}
}

func (s *robotsProbeState) apply(resp *fetcher.Response) {
	if s.status == fetcher.RobotsStatusUnknown {
		return
	}
	resp.RobotsStatus = s.status
	resp.RobotsReason = s.reason
}

func (s *robotsProbeState) probe(req *http.Request, base http.RoundTripper) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		clone := req.Clone(req.Context())
		clone.Body = req.Body
		resp, err := base.RoundTrip(clone)
		switch {
		case err == nil:
			return resp, nil
		case !isTimeout(err):
			return nil, fmt.Errorf("robots probe: %w", err)
		case attempt >= len(s.backoff):
			s.status = fetcher.RobotsStatusIndeterminate
			s.reason = robotsFallbackReasonTLSHandshake
			metrics.ObserveProbeTLSHandshakeTimeout()
			return &http.Response{
				StatusCode:    http.StatusOK,
				Status:        "200 OK",
				Body:          io.NopCloser(strings.NewReader(allowAllRobots)),
				ContentLength: int64(len(allowAllRobots)),
				Header:        make(http.Header),
				Request:       req,
			}, nil
		}

		timer := time.NewTimer(s.backoff[attempt])
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, fmt.Errorf("robots probe backoff: %w", req.Context().Err())
		case <-timer.C:
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "tls: handshake timeout")
}
