package api

import (
	"github.com/gorilla/mux"

	"github.com/repchain/repchain/internal/config"
	"github.com/repchain/repchain/internal/db"
	"github.com/repchain/repchain/internal/jobs"
	"github.com/repchain/repchain/internal/repository/sqlite"
	"github.com/repchain/repchain/internal/reputation"
	"github.com/repchain/repchain/pkg/github"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, database *db.DB, gh *github.Client) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository and services
	repo := sqlite.New(database, logger)
	engine := reputation.NewEngine(repo, repo, gh, logger)
	svc := jobs.NewService(repo, repo, engine, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	jobsHandler := NewJobsHandler(svc, repo)
	usersHandler := NewUsersHandler(repo, engine)
	githubHandler := NewGitHubHandler(repo, gh, engine)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/nonce", authHandler.Nonce).Methods("POST")
	r.HandleFunc("/v1/auth/login", authHandler.Login).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Job endpoints
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/my", jobsHandler.MyJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}", jobsHandler.GetJob).Methods("GET")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/apply", jobsHandler.Apply).Methods("POST")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/assign", jobsHandler.Assign).Methods("POST")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/submit", jobsHandler.Submit).Methods("POST")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/review", jobsHandler.Review).Methods("POST")
	apiV1.HandleFunc("/jobs/{id:[0-9]+}/cancel", jobsHandler.Cancel).Methods("POST")

	// User endpoints
	apiV1.HandleFunc("/users/me", usersHandler.Me).Methods("GET")
	apiV1.HandleFunc("/users/me", usersHandler.UpdateMe).Methods("PUT")
	apiV1.HandleFunc("/users/{id:[0-9]+}/reputation", usersHandler.GetReputation).Methods("GET")
	apiV1.HandleFunc("/users/{id:[0-9]+}/reputation/refresh", usersHandler.RefreshReputation).Methods("POST")

	// GitHub endpoints
	apiV1.HandleFunc("/github/connect", githubHandler.Connect).Methods("POST")
	apiV1.HandleFunc("/github/disconnect", githubHandler.Disconnect).Methods("POST")
	apiV1.HandleFunc("/github/stats", githubHandler.Stats).Methods("GET")
	apiV1.HandleFunc("/github/refresh", githubHandler.Refresh).Methods("POST")

	return r
}
