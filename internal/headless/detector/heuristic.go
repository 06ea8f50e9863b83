// Package detector decides when a page fetched over plain HTTP has to be
// fetched again in a browser, and wires that decision into a fetcher.
package detector

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
)

const defaultBodyThreshold = 2048

// Heuristic flags pages that are rendered client side.
type Heuristic struct {
	// BodyThreshold is the size under which a script heavy page counts as a
	// shell.
	BodyThreshold int
	// Anchors are selectors a fully rendered page contains at least one of.
	// Empty disables the check.
	Anchors []string
}

// NewHeuristic creates a Heuristic. A zero threshold uses 2 KiB.
func NewHeuristic(threshold int, anchors ...string) *Heuristic {
	if threshold <= 0 {
		threshold = defaultBodyThreshold
	}
	return &Heuristic{BodyThreshold: threshold, Anchors: anchors}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
	[]byte("enable javascript"),
}

// ShouldPromote reports whether resp looks like an unrendered page. Only
// 200 responses are ever promoted.
func (h *Heuristic) ShouldPromote(resp fetcher.Response) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	body := resp.Body
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if len(body) < h.BodyThreshold && scriptShare(body) >= 25 {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range spaMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return len(h.Anchors) > 0 && !h.hasAnchor(body)
}

func (h *Heuristic) hasAnchor(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	for _, sel := range h.Anchors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// scriptShare returns the percentage of body covered by script elements.
// An unterminated script runs to the end of the body.
func scriptShare(body []byte) int {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return 0
	}
	covered := 0
	pos := 0
	for {
		rel := strings.Index(lower[pos:], "<script")
		if rel == -1 {
			break
		}
		start := pos + rel
		end := strings.Index(lower[start:], "</script>")
		if end == -1 {
			covered += total - start
			break
		}
		next := start + end + len("</script>")
		covered += next - start
		pos = next
	}
	return covered * 100 / total
}

// Promoting fetches with probe first and retries in browser when the
// heuristic flags the result. A browser failure falls back to the probe
// response.
type Promoting struct {
	probe    fetcher.Fetcher
	browser  fetcher.Fetcher
	detector *Heuristic
	logger   *zap.Logger
}

// NewPromoting builds a Promoting fetcher.
func NewPromoting(probe, browser fetcher.Fetcher, h *Heuristic, logger *zap.Logger) *Promoting {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Promoting{probe: probe, browser: browser, detector: h, logger: logger.Named("promoting_fetcher")}
}

// Fetch implements fetcher.Fetcher.
func (p *Promoting) Fetch(ctx context.Context, req fetcher.Request) (fetcher.Response, error) {
	resp, err := p.probe.Fetch(ctx, req)
	if err != nil || !p.detector.ShouldPromote(resp) {
		return resp, err
	}
	rendered, err := p.browser.Fetch(ctx, req)
	if err != nil {
		p.logger.Warn("headless promotion failed, keeping probe response",
			zap.String("url", req.URL), zap.Error(err))
		return resp, nil
	}
	rendered.UsedHeadless = true
	return rendered, nil
}
