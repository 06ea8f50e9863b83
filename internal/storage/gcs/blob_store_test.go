package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	gstorage "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.Handler) *gstorage.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := gstorage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewValidatesInput(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)

	client := newTestClient(t, http.NotFoundHandler())
	_, err = New(client, Config{})
	require.Error(t, err)
}

func TestPutObjectUploadsToBucket(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/b/atlas-bucket/o")
		assert.Equal(t, "places-data/1.json", r.URL.Query().Get("name"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), `{"total":0}`)
		fmt.Fprintln(w, `{"name":"places-data/1.json","bucket":"atlas-bucket"}`)
	})

	bs, err := New(newTestClient(t, handler), Config{Bucket: "atlas-bucket"})
	require.NoError(t, err)

	uri, err := bs.PutObject(context.Background(), "places-data/1.json", "application/json", bytes.NewReader([]byte(`{"total":0}`)))
	require.NoError(t, err)
	require.Equal(t, "gs://atlas-bucket/places-data/1.json", uri)

	_, err = bs.PutObject(context.Background(), "", "application/json", bytes.NewReader(nil))
	require.Error(t, err)
}
