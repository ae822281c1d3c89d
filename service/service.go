package service

import (
	"errors"

	"github.com/kmazur/inkroom/pubsub"
	"github.com/kmazur/inkroom/rooms"
	"github.com/kmazur/inkroom/store"
	"github.com/kmazur/inkroom/worker"
)

var ErrNotInRoom = errors.New("not in room")

type Service struct {
	Store       store.BoardStore
	PubSub      pubsub.PubSub
	Rooms       *rooms.Manager
	Broadcaster *worker.Broadcaster
	JWTSecret   []byte
}

func NewService(
	boardStore store.BoardStore,
	ps pubsub.PubSub,
	roomManager *rooms.Manager,
	broadcaster *worker.Broadcaster,
	jwtSecret []byte,
) (*Service, error) {
	if len(jwtSecret) == 0 {
		return nil, errors.New("jwt secret is required")
	}

	return &Service{
		Store:       boardStore,
		PubSub:      ps,
		Rooms:       roomManager,
		Broadcaster: broadcaster,
		JWTSecret:   jwtSecret,
	}, nil
}
