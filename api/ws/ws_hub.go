package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/kmazur/inkroom/models"
	"github.com/kmazur/inkroom/pubsub"
	"github.com/kmazur/inkroom/worker"
)

// ready, when non-nil, is signaled once the hub has the client registered
// and the room's pub/sub subscription established (or failed).
type subscription struct {
	client *Client
	room   string
	ready  chan error
}

func (s subscription) ack(err error) {
	if s.ready != nil {
		s.ready <- err
	}
}

type roomMessage struct {
	room  string
	bytes []byte
}

// Hub maintains the set of active clients and fans room events out to them.
// One pub/sub subscription exists per room with at least one local client;
// it is torn down when the last client leaves.
type Hub struct {
	ps                     pubsub.PubSub
	OpenCh                 chan *Client
	CloseCh                chan *Client
	JoinCh                 chan subscription
	LeaveCh                chan subscription
	broadcastCh            chan roomMessage
	userToClients          map[string]map[*Client]struct{}
	roomToClients          map[string]map[*Client]struct{}
	roomToSubscriberCancel map[string]context.CancelFunc
	clientRoom             map[*Client]string
}

func NewHub(ps pubsub.PubSub) *Hub {
	return &Hub{
		ps:                     ps,
		OpenCh:                 make(chan *Client, 256),
		CloseCh:                make(chan *Client, 256),
		JoinCh:                 make(chan subscription, 1024),
		LeaveCh:                make(chan subscription, 1024),
		broadcastCh:            make(chan roomMessage, 1024),
		userToClients:          make(map[string]map[*Client]struct{}),
		roomToClients:          make(map[string]map[*Client]struct{}),
		roomToSubscriberCancel: make(map[string]context.CancelFunc),
		clientRoom:             make(map[*Client]string),
	}
}

const maxConnectionsPerUser = 3

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.OpenCh:
			if _, ok := h.userToClients[client.user.Id]; !ok {
				h.userToClients[client.user.Id] = make(map[*Client]struct{})
			}

			if len(h.userToClients[client.user.Id]) >= maxConnectionsPerUser {
				log.Printf("User %s reached max connections (%d)", client.user.Id, maxConnectionsPerUser)
				// Send must stay open; the read pump may still be delivering
				// a response to it.
				client.Disconnect("too many connections")
				continue
			}

			h.userToClients[client.user.Id][client] = struct{}{}

		case client := <-h.CloseCh:
			if room, ok := h.clientRoom[client]; ok {
				h.dropFromRoom(client, room)
			}
			delete(h.clientRoom, client)
			delete(h.userToClients[client.user.Id], client)
			if len(h.userToClients[client.user.Id]) == 0 {
				delete(h.userToClients, client.user.Id)
			}

		case sub := <-h.JoinCh:
			// One room per connection: joining a new room implies leaving
			// the previous one.
			if prev, ok := h.clientRoom[sub.client]; ok && prev != sub.room {
				h.dropFromRoom(sub.client, prev)
			}

			if h.roomToClients[sub.room] == nil {
				ctx, cancel := context.WithCancel(context.Background())
				room := sub.room

				// The subscription callback runs on the pub/sub goroutine;
				// hand the message to the hub goroutine, which owns the
				// client maps.
				err := h.ps.Subscribe(ctx, worker.RoomChannel(room), func(messageBytes []byte) {
					h.broadcastCh <- roomMessage{room: room, bytes: messageBytes}
				})
				if err != nil {
					log.Printf("Failed to create subscription for room %s: %v", room, err)
					cancel()
					sub.ack(err)
					continue
				}

				h.roomToClients[sub.room] = make(map[*Client]struct{})
				h.roomToSubscriberCancel[sub.room] = cancel
			}
			h.roomToClients[sub.room][sub.client] = struct{}{}
			h.clientRoom[sub.client] = sub.room
			sub.ack(nil)

		case unsub := <-h.LeaveCh:
			if h.clientRoom[unsub.client] == unsub.room {
				h.dropFromRoom(unsub.client, unsub.room)
				delete(h.clientRoom, unsub.client)
			}

		case msg := <-h.broadcastCh:
			h.fanOut(msg.room, msg.bytes)
		}
	}
}

func (h *Hub) dropFromRoom(client *Client, room string) {
	delete(h.roomToClients[room], client)
	if len(h.roomToClients[room]) == 0 {
		if cancel, ok := h.roomToSubscriberCancel[room]; ok {
			cancel()
			delete(h.roomToSubscriberCancel, room)
		}
		delete(h.roomToClients, room)
	}
}

// fanOut delivers a published envelope to every client in the room except
// the originating connection.
func (h *Hub) fanOut(room string, messageBytes []byte) {
	var env models.Envelope
	if err := json.Unmarshal(messageBytes, &env); err != nil {
		log.Printf("Failed to unmarshal envelope for room %s: %v", room, err)
		return
	}

	for client := range h.roomToClients[room] {
		if client.id == env.Origin {
			continue
		}
		select {
		case client.Send <- env.Payload:
		default:
			// A full buffer means the write pump is stalled. Drop that
			// connection rather than blocking fan-out for everyone.
			log.Printf("Dropping slow ws client for user %s", client.user.Id)
			client.Disconnect("send buffer full")
		}
	}
}
