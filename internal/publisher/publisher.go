// Package publisher announces finished scrape jobs to downstream consumers.
package publisher

import "context"

// Publisher sends a JSON-encodable payload to a topic and returns the
// broker's message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
