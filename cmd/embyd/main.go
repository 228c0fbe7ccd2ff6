package main

import (
	"log"

	"github.com/motorinps-dev/emby/internal/app"
	"github.com/motorinps-dev/emby/internal/config"
)

func main() {
	cfg := config.LoadConfig()

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("run error: %v", err)
	}
}
