package ports

import "context"

// Publisher sends an already encoded write event to a topic.
type Publisher interface {
	PublishRaw(ctx context.Context, topicArn string, payload []byte) error
}
