// Package fetcher defines the page retrieval contract used by the scraper
// and the helpers shared by its implementations.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/bible-atlas-api/internal/metrics"
)

// RobotsStatus records how robots.txt was resolved for a fetch.
type RobotsStatus string

// Supported robots states. The zero value means robots.txt was either not
// consulted or resolved normally.
const (
	RobotsStatusUnknown       RobotsStatus = ""
	RobotsStatusIndeterminate RobotsStatus = "indeterminate"
)

// Request describes a single page fetch.
type Request struct {
	URL    string
	Header http.Header
}

// Response is the raw result of a fetch.
type Response struct {
	URL          string
	StatusCode   int
	Header       http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
	RobotsStatus RobotsStatus
	RobotsReason string
}

// Fetcher retrieves pages.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Waiter throttles outbound requests per host.
type Waiter interface {
	Wait(ctx context.Context, url string) error
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

type polite struct {
	next   Fetcher
	waiter Waiter
}

// Polite wraps f so every fetch first waits on w and is recorded in the
// scrape metrics. A nil w only adds instrumentation.
func Polite(f Fetcher, w Waiter) Fetcher {
	return &polite{next: f, waiter: w}
}

func (p *polite) Fetch(ctx context.Context, req Request) (Response, error) {
	if p.waiter != nil {
		if err := p.waiter.Wait(ctx, req.URL); err != nil {
			return Response{}, err
		}
	}
	resp, err := p.next.Fetch(ctx, req)
	if err != nil {
		metrics.ObserveFetch(req.URL, "error", 0)
		return Response{}, err
	}
	metrics.ObserveFetch(req.URL, http.StatusText(resp.StatusCode), len(resp.Body))
	return resp, nil
}

// Document fetches url and parses the body as HTML. Non-2xx responses yield
// a *StatusError.
func Document(ctx context.Context, f Fetcher, url string) (*goquery.Document, error) {
	body, err := Bytes(ctx, f, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// Bytes fetches url and returns the body of a 2xx response.
func Bytes(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	resp, err := f.Fetch(ctx, Request{URL: url})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
