package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repchain/repchain/api"
	dbfs "github.com/repchain/repchain/db"
	"github.com/repchain/repchain/internal/config"
	"github.com/repchain/repchain/internal/db"
	"github.com/repchain/repchain/internal/repository/sqlite"
	"github.com/repchain/repchain/internal/reputation"
	"github.com/repchain/repchain/internal/scheduler"
	"github.com/repchain/repchain/pkg/github"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	log.Printf("Starting RepChain server version %s (built at %s)", version, buildTime)

	ctx := context.Background()

	// Open database connection and run migrations
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gh, err := github.NewClient(cfg.GitHub, nil)
	if err != nil {
		log.Fatalf("Failed to create GitHub client: %v", err)
	}

	handler := api.SetupRoutes(cfg, version, buildTime, database, gh)

	// Settlement scheduler: auto-release and review reminders
	repo := sqlite.New(database, nil)
	engine := reputation.NewEngine(repo, repo, gh, nil)
	sched := scheduler.New(repo, nil, engine, nil, cfg.Scheduler.Interval, nil)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sched.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := gh.Close(); err != nil {
		log.Printf("Error closing GitHub client: %v", err)
	}

	// Close database connection
	if err := database.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
