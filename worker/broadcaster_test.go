package worker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kmazur/inkroom/models"
	"github.com/kmazur/inkroom/pubsub/mocks"
	"github.com/kmazur/inkroom/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	bytes   []byte
}

func TestBroadcaster_PublishesInEnqueueOrder(t *testing.T) {
	mockPS := new(mocks.MockPubSub)

	var mu sync.Mutex
	var got []published
	done := make(chan struct{})

	const total = 10
	mockPS.On("Publish", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		got = append(got, published{
			channel: args.String(1),
			bytes:   append([]byte(nil), args.Get(2).([]byte)...),
		})
		if len(got) == total {
			close(done)
		}
		mu.Unlock()
	}).Return(nil)

	b := worker.NewBroadcaster(mockPS)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	for i := 0; i < total; i++ {
		b.Enqueue(models.Event{
			Room:   "room",
			Type:   "stroke_added",
			Origin: fmt.Sprintf("conn%d", i),
			Data:   map[string]int{"seq": i},
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "timed out waiting for publishes")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, total)
	for i, p := range got {
		assert.Equal(t, "room:room", p.channel)

		var env models.Envelope
		require.NoError(t, json.Unmarshal(p.bytes, &env))
		assert.Equal(t, fmt.Sprintf("conn%d", i), env.Origin)

		var payload struct {
			Type string         `json:"type"`
			Data map[string]int `json:"data"`
		}
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, "stroke_added", payload.Type)
		assert.Equal(t, i, payload.Data["seq"])
	}
}

func TestRoomChannel(t *testing.T) {
	assert.Equal(t, "room:lobby", worker.RoomChannel("lobby"))
}
