package ws

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kmazur/inkroom/models"
	"github.com/kmazur/inkroom/pubsub/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testEnvelope(t *testing.T, origin string) []byte {
	payload, err := json.Marshal(map[string]string{"type": "stroke_added"})
	require.NoError(t, err)
	env, err := json.Marshal(models.Envelope{Origin: origin, Payload: payload})
	require.NoError(t, err)
	return env
}

func newHubClient(h *Hub, userId string) *Client {
	return NewClient(h, nil, models.User{Id: userId}, nil, nil, 60, 120)
}

func joinRoom(t *testing.T, h *Hub, c *Client, room string) {
	ready := make(chan error, 1)
	h.JoinCh <- subscription{client: c, room: room, ready: ready}
	select {
	case err := <-ready:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "timed out waiting for join ack")
	}
}

// A client whose write pump is stalled must not hold up fan-out for any
// other client, including ones in different rooms.
func TestFanOut_SlowClientDoesNotStallOtherRooms(t *testing.T) {
	mockPS := new(mocks.MockPubSub)
	mockPS.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	h := NewHub(mockPS)
	go h.Run()

	slow := newHubClient(h, "u1")
	fast := newHubClient(h, "u2")
	h.OpenCh <- slow
	h.OpenCh <- fast
	joinRoom(t, h, slow, "roomA")
	joinRoom(t, h, fast, "roomB")

	for i := 0; i < cap(slow.Send); i++ {
		slow.Send <- []byte("backlog")
	}

	h.broadcastCh <- roomMessage{room: "roomA", bytes: testEnvelope(t, "")}
	h.broadcastCh <- roomMessage{room: "roomB", bytes: testEnvelope(t, "")}

	select {
	case <-fast.Send:
	case <-time.After(time.Second):
		require.Fail(t, "fan-out stalled behind a slow client in another room")
	}

	// The stalled client is dropped instead of wedging the hub.
	select {
	case <-slow.done:
	case <-time.After(time.Second):
		require.Fail(t, "slow client was not disconnected")
	}
}

func TestFanOut_SkipsOriginConnection(t *testing.T) {
	mockPS := new(mocks.MockPubSub)
	mockPS.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	h := NewHub(mockPS)
	go h.Run()

	sender := newHubClient(h, "u1")
	receiver := newHubClient(h, "u2")
	h.OpenCh <- sender
	h.OpenCh <- receiver
	joinRoom(t, h, sender, "room")
	joinRoom(t, h, receiver, "room")

	// Two envelopes from the sender's connection; waiting for both on the
	// receiver proves both fan-outs completed before the check below.
	for i := 0; i < 2; i++ {
		h.broadcastCh <- roomMessage{room: "room", bytes: testEnvelope(t, sender.id)}
		select {
		case <-receiver.Send:
		case <-time.After(time.Second):
			require.Fail(t, "receiver did not get the broadcast")
		}
	}

	assert.Equal(t, 0, len(sender.Send))
}

// The join ack must not arrive before the room's pub/sub subscription is
// established; the handler takes its replay snapshot only after the ack.
func TestJoin_AcksAfterSubscriptionEstablished(t *testing.T) {
	mockPS := new(mocks.MockPubSub)
	entered := make(chan struct{})
	release := make(chan struct{})
	mockPS.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(nil)

	h := NewHub(mockPS)
	go h.Run()

	c := newHubClient(h, "u1")
	h.OpenCh <- c

	ready := make(chan error, 1)
	h.JoinCh <- subscription{client: c, room: "room", ready: ready}

	select {
	case <-entered:
	case <-time.After(time.Second):
		require.Fail(t, "subscribe was never attempted")
	}

	select {
	case <-ready:
		require.Fail(t, "join acked before the subscription was established")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-ready:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "join was never acked")
	}
}

func TestJoin_SubscribeFailureReported(t *testing.T) {
	mockPS := new(mocks.MockPubSub)
	mockPS.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	h := NewHub(mockPS)
	go h.Run()

	c := newHubClient(h, "u1")
	h.OpenCh <- c

	ready := make(chan error, 1)
	h.JoinCh <- subscription{client: c, room: "room", ready: ready}
	select {
	case err := <-ready:
		assert.Error(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "join failure was never acked")
	}

	// A failed room must not be cached; the next join retries the subscribe.
	ready = make(chan error, 1)
	h.JoinCh <- subscription{client: c, room: "room", ready: ready}
	select {
	case err := <-ready:
		assert.Error(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "second join failure was never acked")
	}
	mockPS.AssertNumberOfCalls(t, "Subscribe", 2)
}

// An over-limit connection is told to go away via a close frame. Its Send
// channel stays open because the read pump may concurrently deliver a
// response to it; closing it here would panic that goroutine.
func TestOpen_ConnectionLimitKeepsSendUsable(t *testing.T) {
	mockPS := new(mocks.MockPubSub)
	h := NewHub(mockPS)
	go h.Run()

	for i := 0; i < maxConnectionsPerUser; i++ {
		h.OpenCh <- newHubClient(h, "u1")
	}
	extra := newHubClient(h, "u1")
	h.OpenCh <- extra

	select {
	case <-extra.done:
	case <-time.After(time.Second):
		require.Fail(t, "over-limit connection was not disconnected")
	}

	// Would panic if the hub had closed the channel.
	extra.Send <- []byte("response")
}

func TestDisconnect_Idempotent(t *testing.T) {
	h := NewHub(new(mocks.MockPubSub))
	c := newHubClient(h, "u1")

	c.Disconnect("first")
	c.Disconnect("second")

	<-c.done
	assert.Equal(t, "first", c.closeReason)
}
