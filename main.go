package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kmazur/inkroom/api"
	"github.com/kmazur/inkroom/config"
	"github.com/kmazur/inkroom/pubsub/redis"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	jwtSecret, err := cfg.JWTSecret()
	if err != nil {
		log.Fatalf("Failed to decode jwt secret: %v", err)
	}

	ps, err := redis.NewRedisPubSub(ctx, cfg.DevMode, cfg.RedisEndpoint)
	if err != nil {
		log.Fatalf("Failed to create redis pubsub: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	inkroomAPI, err := api.NewInkroomAPI(ps, cfg, jwtSecret, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create inkroom api: %v", err)
	}

	mux := http.NewServeMux()
	inkroomAPI.RegisterRoutes(mux, cfg.AllowedOrigin)

	log.Printf("Starting server on host port: %s\n", cfg.HostPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HostPort, mux))
}
