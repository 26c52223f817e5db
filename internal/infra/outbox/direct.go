package outbox

import "context"

// PayloadHandler consumes one relayed message.
type PayloadHandler interface {
	HandlePayload(ctx context.Context, payload []byte) error
}

// DirectProducer delivers relayed messages to in-process handlers subscribed by topic.
// It stands in for Kafka when no brokers are configured.
type DirectProducer struct {
	subscribers map[string][]PayloadHandler
}

func NewDirectProducer() *DirectProducer {
	return &DirectProducer{subscribers: make(map[string][]PayloadHandler)}
}

// Subscribe must be called before the worker starts.
func (p *DirectProducer) Subscribe(topic string, h PayloadHandler) {
	p.subscribers[topic] = append(p.subscribers[topic], h)
}

func (p *DirectProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	for _, h := range p.subscribers[topic] {
		if err := h.HandlePayload(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

var _ Producer = (*DirectProducer)(nil)
