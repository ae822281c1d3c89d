package api

import (
	"context"
	"log"
	"net/http"

	"github.com/kmazur/inkroom/api/rest"
	"github.com/kmazur/inkroom/api/ws"
	"github.com/kmazur/inkroom/config"
	"github.com/kmazur/inkroom/pubsub"
	"github.com/kmazur/inkroom/rooms"
	"github.com/kmazur/inkroom/service"
	"github.com/kmazur/inkroom/store/memory"
	"github.com/kmazur/inkroom/worker"
)

type InkroomAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewInkroomAPI(ps pubsub.PubSub, cfg *config.Config, jwtSecret []byte, shutdownCtx context.Context) (*InkroomAPI, error) {
	broadcaster := worker.NewBroadcaster(ps)
	go broadcaster.Run(shutdownCtx)

	boardStore := memory.NewMemoryBoardStore(broadcaster, cfg.MaxRoomStrokes)
	roomManager := rooms.NewManager()

	janitor := worker.NewJanitor(boardStore, roomManager, cfg.RoomIdleWindow, cfg.JanitorInterval)
	go janitor.Run(shutdownCtx)

	wsHub := ws.NewHub(ps)
	go wsHub.Run()

	svc, err := service.NewService(boardStore, ps, roomManager, broadcaster, jwtSecret)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &InkroomAPI{}, err
	}

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub, cfg.MessagesPerSecond, cfg.MessageBurst)

	return &InkroomAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (inkroomAPI *InkroomAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/session", inkroomAPI.restHandler.HandleSession)
	mux.HandleFunc("/rooms", inkroomAPI.restHandler.HandleRooms)
	mux.HandleFunc("/rooms/{room}/stats", inkroomAPI.restHandler.HandleRoomStats)
	mux.HandleFunc("/stats", inkroomAPI.restHandler.HandleStats)

	wsUpgrader := inkroomAPI.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		inkroomAPI.wsHandler.ServeWS(wsUpgrader, w, r, inkroomAPI.shutdownCtx)
	})
}
