package fetcher

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	resp  Response
	err   error
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, req Request) (Response, error) {
	s.calls++
	if s.err != nil {
		return Response{}, s.err
	}
	resp := s.resp
	resp.URL = req.URL
	return resp, nil
}

type stubWaiter struct {
	err  error
	urls []string
}

func (w *stubWaiter) Wait(_ context.Context, url string) error {
	w.urls = append(w.urls, url)
	return w.err
}

func TestDocumentParsesHTML(t *testing.T) {
	t.Parallel()
	f := &stubFetcher{resp: Response{StatusCode: http.StatusOK, Body: []byte(`<h2 id="a">Bethel</h2>`)}}

	doc, err := Document(context.Background(), f, "https://example.com/geo/atlas/all")
	require.NoError(t, err)
	require.Equal(t, "Bethel", doc.Find("h2#a").Text())
}

func TestBytesRejectsNon2xx(t *testing.T) {
	t.Parallel()
	f := &stubFetcher{resp: Response{StatusCode: http.StatusNotFound}}

	_, err := Bytes(context.Background(), f, "https://example.com/x.geojson")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestPoliteWaitsBeforeFetching(t *testing.T) {
	t.Parallel()
	f := &stubFetcher{resp: Response{StatusCode: http.StatusOK}}
	w := &stubWaiter{}

	_, err := Polite(f, w).Fetch(context.Background(), Request{URL: "https://example.com/a"})
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/a"}, w.urls)
	require.Equal(t, 1, f.calls)
}

func TestPoliteStopsWhenWaitFails(t *testing.T) {
	t.Parallel()
	f := &stubFetcher{}
	w := &stubWaiter{err: context.Canceled}

	_, err := Polite(f, w).Fetch(context.Background(), Request{URL: "https://example.com/a"})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, f.calls)
}

func TestPolitePropagatesFetchErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	_, err := Polite(&stubFetcher{err: boom}, nil).Fetch(context.Background(), Request{URL: "https://example.com"})
	require.ErrorIs(t, err, boom)
}
