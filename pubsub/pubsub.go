package pubsub

import "context"

// PubSub is the fan-out primitive between the drawing service and the
// websocket hub. Per-channel delivery order must match publish order.
type PubSub interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error
}
