package headless

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
)

func TestNewChromedpValidatesSlots(t *testing.T) {
	t.Parallel()

	_, err := NewChromedp(Config{Slots: -1})
	require.Error(t, err)

	f, err := NewChromedp(Config{Slots: 2})
	require.NoError(t, err)
	t.Cleanup(f.Close)
	require.NotNil(t, f.slots)
	require.Equal(t, defaultNavigationTimeout, f.cfg.NavigationTimeout)
	require.Equal(t, 500*time.Millisecond, f.cfg.Settle)

	unlimited, err := NewChromedp(Config{})
	require.NoError(t, err)
	t.Cleanup(unlimited.Close)
	require.Nil(t, unlimited.slots)
}

func TestFetchWaitsForSlot(t *testing.T) {
	t.Parallel()

	f, err := NewChromedp(Config{Slots: 1})
	require.NoError(t, err)
	t.Cleanup(f.Close)
	require.True(t, f.slots.TryAcquire(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, fetcher.Request{URL: "https://example.com"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestToNetworkHeaders(t *testing.T) {
	t.Parallel()

	got := toNetworkHeaders(http.Header{"X-One": {"a"}, "X-Many": {"a", "b"}, "X-None": {}})
	require.Equal(t, "a", got["X-One"])
	require.Equal(t, []string{"a", "b"}, got["X-Many"])
	require.NotContains(t, got, "X-None")
}

func TestDocumentMetaResolve(t *testing.T) {
	t.Parallel()

	meta := &documentMeta{}
	meta.observe(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status:  204,
			URL:     "https://example.com/rendered",
			Headers: network.Headers{"X-Request-ID": "abc"},
		},
	})
	status, header, url := meta.resolve("https://req", "")
	require.Equal(t, 204, status)
	require.Equal(t, "abc", header.Get("X-Request-ID"))
	require.Equal(t, "https://example.com/rendered", url)

	meta = &documentMeta{}
	meta.observe(&network.EventResponseReceived{Type: network.ResourceTypeImage, Response: &network.Response{Status: 404}})
	status, header, url = meta.resolve("https://req", "https://final")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, header)
	require.Equal(t, "https://final", url)

	_, _, url = (&documentMeta{}).resolve("https://req", "")
	require.Equal(t, "https://req", url)
}

func TestNoopFetcher(t *testing.T) {
	t.Parallel()
	_, err := NewNoop().Fetch(context.Background(), fetcher.Request{})
	require.ErrorIs(t, err, ErrUnavailable)
}
