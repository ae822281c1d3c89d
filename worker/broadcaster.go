package worker

import (
	"context"
	"encoding/json"
	"log"

	"github.com/kmazur/inkroom/models"
	"github.com/kmazur/inkroom/pubsub"
)

type broadcastMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broadcaster drains committed room events in FIFO order and publishes them
// on the room's pub/sub channel. The store enqueues while holding the room
// lock, so the channel receives events in commit order; a single drain
// goroutine and redis's per-channel ordering carry that order to the hub.
type Broadcaster struct {
	EventCh chan models.Event
	ps      pubsub.PubSub
}

func NewBroadcaster(ps pubsub.PubSub) *Broadcaster {
	return &Broadcaster{
		EventCh: make(chan models.Event, 1024), // buffer to absorb bursts
		ps:      ps,
	}
}

// Enqueue must never block: it runs under the store's room lock. If the
// buffer is full the event is dropped and logged rather than stalling the
// mutation path.
func (b *Broadcaster) Enqueue(ev models.Event) {
	select {
	case b.EventCh <- ev:
	default:
		log.Printf("Broadcaster buffer full, dropping %s event for room %s", ev.Type, ev.Room)
	}
}

func (b *Broadcaster) Run(shutdownCtx context.Context) {
	for {
		select {
		case ev := <-b.EventCh:
			b.publish(ev)

		case <-shutdownCtx.Done():
			// Flush whatever is already committed before exiting
			for {
				select {
				case ev := <-b.EventCh:
					b.publish(ev)
				default:
					return
				}
			}
		}
	}
}

func RoomChannel(room string) string {
	return "room:" + room
}

func (b *Broadcaster) publish(ev models.Event) {
	payload, err := json.Marshal(broadcastMessage{Type: ev.Type, Data: ev.Data})
	if err != nil {
		log.Printf("Failed to marshal %s event for room %s: %v", ev.Type, ev.Room, err)
		return
	}

	envBytes, err := json.Marshal(models.Envelope{Origin: ev.Origin, Payload: payload})
	if err != nil {
		log.Printf("Failed to marshal envelope for room %s: %v", ev.Room, err)
		return
	}

	if err := b.ps.Publish(context.Background(), RoomChannel(ev.Room), envBytes); err != nil {
		log.Printf("Failed to publish %s event for room %s: %v", ev.Type, ev.Room, err)
	}
}
