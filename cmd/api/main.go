package main

import (
	"log"

	"adogo/api"
	"adogo/internal"
	"adogo/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger := internal.NewDefaultLogger()
	server := api.NewServer(api.Config{
		Seed:    cfg.Engine.Seed,
		Epsilon: cfg.Engine.Epsilon,
	}, logger)

	if err := server.ListenAndServe(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
