package worker

import (
	"context"
	"log"
	"time"

	"github.com/kmazur/inkroom/rooms"
	"github.com/kmazur/inkroom/store"
)

// Janitor reclaims drawing state for rooms that have been idle past the
// configured window. Membership is checked last: a room with users keeps its
// canvas no matter how long since the last stroke.
type Janitor struct {
	boardStore store.BoardStore
	manager    *rooms.Manager
	idleWindow time.Duration
	interval   time.Duration
}

func NewJanitor(boardStore store.BoardStore, manager *rooms.Manager, idleWindow time.Duration, interval time.Duration) *Janitor {
	return &Janitor{
		boardStore: boardStore,
		manager:    manager,
		idleWindow: idleWindow,
		interval:   interval,
	}
}

func (j *Janitor) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep(shutdownCtx)

		case <-shutdownCtx.Done():
			return
		}
	}
}

// Sweep drops every memberless room whose last mutation is older than the
// idle window. Returns the number of rooms reclaimed.
func (j *Janitor) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-j.idleWindow)
	reclaimed := 0

	for _, room := range j.boardStore.IdleRooms(ctx, cutoff) {
		if j.manager.UserCount(room) > 0 {
			continue
		}
		j.boardStore.DropRoom(ctx, room)
		reclaimed++
		log.Printf("Janitor reclaimed idle room %s", room)
	}

	return reclaimed
}
