package detector

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
)

func ok(body string) fetcher.Response {
	return fetcher.Response{StatusCode: http.StatusOK, Body: []byte(body)}
}

func TestShouldPromote(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		anchors []string
		resp    fetcher.Response
		want    bool
	}{
		{name: "empty body", resp: ok("  \n"), want: true},
		{name: "spa marker", resp: ok(`<div id="__next"></div><p>` + string(make([]byte, 3000)) + `</p>`), want: true},
		{name: "script heavy shell", resp: ok(`<html><script>var a=1;</script><p>t</p></html>`), want: true},
		{name: "noscript notice", resp: ok(`<p>Please Enable JavaScript to view this atlas.</p>`), want: true},
		{name: "non 200", resp: fetcher.Response{StatusCode: http.StatusNotFound}, want: false},
		{name: "plain page", resp: ok(`<h2>About Abana</h2><p>A river near Damascus.</p>`), want: false},
		{name: "anchor missing", anchors: []string{"h2", "table"}, resp: ok(`<p>Loading the atlas entry for this place...</p>`), want: true},
		{name: "anchor present", anchors: []string{"h2", "table"}, resp: ok(`<table><tr><td>river</td></tr></table>`), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := NewHeuristic(100, tc.anchors...)
			require.Equal(t, tc.want, h.ShouldPromote(tc.resp))
		})
	}
}

func TestScriptShareUnterminated(t *testing.T) {
	t.Parallel()
	require.Equal(t, 100, scriptShare([]byte(`<script>while(true){}`)))
	require.Zero(t, scriptShare([]byte(`<p>no scripts</p>`)))
}

type stubFetcher struct {
	resp  fetcher.Response
	err   error
	calls int
}

func (s *stubFetcher) Fetch(context.Context, fetcher.Request) (fetcher.Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestPromoting(t *testing.T) {
	t.Parallel()
	rendered := ok(`<h2>About Abana</h2>`)

	t.Run("rendered page skips browser", func(t *testing.T) {
		t.Parallel()
		probe := &stubFetcher{resp: ok(`<h2>About Abana</h2>`)}
		browser := &stubFetcher{resp: rendered}
		resp, err := NewPromoting(probe, browser, NewHeuristic(0, "h2"), nil).Fetch(context.Background(), fetcher.Request{URL: "https://atlas.test/a"})
		require.NoError(t, err)
		require.False(t, resp.UsedHeadless)
		require.Zero(t, browser.calls)
	})

	t.Run("shell is promoted", func(t *testing.T) {
		t.Parallel()
		probe := &stubFetcher{resp: ok(`<div id="root"></div>`)}
		browser := &stubFetcher{resp: rendered}
		resp, err := NewPromoting(probe, browser, NewHeuristic(0, "h2"), nil).Fetch(context.Background(), fetcher.Request{URL: "https://atlas.test/a"})
		require.NoError(t, err)
		require.True(t, resp.UsedHeadless)
		require.Equal(t, rendered.Body, resp.Body)
	})

	t.Run("browser failure keeps probe", func(t *testing.T) {
		t.Parallel()
		probe := &stubFetcher{resp: ok(`<div id="root"></div>`)}
		browser := &stubFetcher{err: errors.New("chrome missing")}
		resp, err := NewPromoting(probe, browser, NewHeuristic(0), nil).Fetch(context.Background(), fetcher.Request{URL: "https://atlas.test/a"})
		require.NoError(t, err)
		require.False(t, resp.UsedHeadless)
		require.Equal(t, probe.resp.Body, resp.Body)
	})

	t.Run("probe error is returned", func(t *testing.T) {
		t.Parallel()
		probe := &stubFetcher{err: errors.New("dial tcp")}
		browser := &stubFetcher{}
		_, err := NewPromoting(probe, browser, NewHeuristic(0), nil).Fetch(context.Background(), fetcher.Request{URL: "https://atlas.test/a"})
		require.EqualError(t, err, "dial tcp")
		require.Zero(t, browser.calls)
	})
}
