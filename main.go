package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/coloranna/openai-realtime-server/config"
	"github.com/coloranna/openai-realtime-server/server"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	deps, err := server.NewDeps(cfg)
	if err != nil {
		log.Fatalf("wiring: %v", err)
	}

	app, err := server.New(cfg, deps)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	if cfg.OpenAI.Project != "" {
		log.Printf("Using OpenAI project %s", cfg.OpenAI.Project)
	}
	log.Printf("Gateway (%s mode) on http://localhost%s", cfg.Mode, addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}
