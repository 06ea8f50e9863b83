package bible

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
)

func TestVerseClient(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote.php" || !strings.HasPrefix(r.URL.RawQuery, "kjv-ge/") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><p>
			<small>1:1</small> In the beginning God created the heaven and the earth.<br>
			<small>1:2</small> And the earth was without form, and void;<br>
			<small>1:3</small><b>bold</b>
		</p></body></html>`))
	}))
	t.Cleanup(srv.Close)

	c := NewVerseClient(httpx.New(httpx.Options{Name: "verse"}), srv.URL+"/")

	text, err := c.Verse(context.Background(), VersionKJV, "ge", 1, 2)
	require.NoError(t, err)
	require.Equal(t, "And the earth was without form, and void;", text)

	text, err = c.Verse(context.Background(), VersionKJV, "ge", 1, 3)
	require.NoError(t, err)
	require.Empty(t, text, "label followed by an element has no text")

	text, err = c.Verse(context.Background(), VersionKJV, "ge", 9, 9)
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestVerseClientUpstreamFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewVerseClient(httpx.New(httpx.Options{Name: "verse"}), srv.URL)
	_, err := c.Verse(context.Background(), VersionKorean, "ge", 1, 1)
	var se *httpx.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Code)
}
