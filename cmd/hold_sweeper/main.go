package main

import (
	"context"
	"log"

	"reservecore/internal/app"
	"reservecore/internal/config"
	"reservecore/internal/database"
)

// One sweep pass for deployments that run expiry from an external scheduler
// (cron, Kubernetes CronJob) with SWEEP_ENABLED=false on the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	a, err := app.New(cfg, db)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	n, err := a.Holds.CleanupExpiredHolds(context.Background())
	if err != nil {
		log.Fatalf("hold sweep failed: %v", err)
	}
	log.Printf("hold sweep completed: expired=%d", n)
}
