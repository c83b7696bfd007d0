package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"reservecore/internal/app"
	"reservecore/internal/config"
	"reservecore/internal/database"
	"reservecore/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	if shutdown := tracing.Init("reservecore-api", cfg.OTLPEndpoint); shutdown != nil {
		defer shutdown()
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := app.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	a, err := app.New(cfg, db)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SweepEnabled {
		sched, err := a.StartSweeper(ctx, cfg.SweepInterval)
		if err != nil {
			log.Fatal(err)
		}
		defer func() { _ = sched.Shutdown() }()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
