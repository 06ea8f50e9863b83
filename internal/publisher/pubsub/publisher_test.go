package pubsub

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newFakePublisher(t *testing.T, topic string) (*Publisher, *pstest.Server) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	client, err := pubsub.NewClient(ctx, "atlas-test",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	_, err = client.CreateTopic(ctx, topic)
	require.NoError(t, err)

	p := New(client, topic)
	t.Cleanup(func() { _ = p.Close() })
	return p, srv
}

func TestPublishEncodesJSON(t *testing.T) {
	t.Parallel()
	p, srv := newFakePublisher(t, "scrape-complete")

	id, err := p.Publish(context.Background(), "", map[string]any{"jobId": "j-1", "status": "success"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "application/json", msgs[0].Attributes["content-type"])
	var got map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, "j-1", got["jobId"])
}

func TestPublishRequiresConfiguration(t *testing.T) {
	t.Parallel()

	var nilPub *Publisher
	_, err := nilPub.Publish(context.Background(), "t", "x")
	require.Error(t, err)

	p, _ := newFakePublisher(t, "scrape-complete")
	p.defaultTopic = ""
	_, err = p.Publish(context.Background(), "", "x")
	require.EqualError(t, err, "pubsub topic is not configured")
}
