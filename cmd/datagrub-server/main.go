/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for DataGrub server
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    cmd/datagrub-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/opencircle/datagrub/internal/api"
	"github.com/opencircle/datagrub/internal/cache"
	"github.com/opencircle/datagrub/internal/comparison"
	"github.com/opencircle/datagrub/internal/config"
	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/evaluation"
	"github.com/opencircle/datagrub/internal/llm"
	"github.com/opencircle/datagrub/internal/metrics"
	"github.com/opencircle/datagrub/internal/secrets"
	"github.com/redis/go-redis/v9"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		configPath     = flag.String("c", "", "Path to configuration file")
		configPathLong = flag.String("config", "", "Path to configuration file")
		seedCatalog    = flag.Bool("seed-catalog", false, "Publish built-in evaluations to the catalog and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "DataGrub Server - evaluation and comparison service for AI model calls\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    Start server with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml     Start server with custom config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -seed-catalog      Seed built-in catalog entries and exit\n", os.Args[0])
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("datagrub version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}

	/* Load configuration */
	cfg := config.DefaultConfig()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *configPathLong
	}
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}

	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v, using defaults\n", err)
		}
	} else {
		config.LoadFromEnv(cfg)
	}

	/* Initialize logging */
	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	database, err := db.NewDBWithRetry(cfg.Database.ConnString(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, 5, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Connection: host=%s port=%d user=%s dbname=%s\n",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database)
		os.Exit(1)
	}
	defer database.Close()

	/* Run migrations */
	migrationRunner, err := db.NewMigrationRunner(database, "./migrations")
	if err == nil {
		if err := migrationRunner.Run(context.Background()); err != nil {
			fmt.Printf("Warning: Migration failed: %v\n", err)
		}
	}

	queries := db.NewQueries(database)

	/* Build the adapter registry */
	judgeCaller := llm.NewAnthropicCaller(os.Getenv(cfg.Judge.APIKeyEnv))
	registry := evaluation.BuildRegistry(
		os.Getenv(cfg.Evaluation.OpenAIAPIKeyEnv),
		judgeCaller,
		cfg.Judge.Model,
		cfg.Judge.MaxTokens,
	)

	if *seedCatalog {
		if err := evaluation.SeedCatalog(context.Background(), registry, queries); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Catalog seeding failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Catalog seeded")
		os.Exit(0)
	}

	/* Optional Redis catalog cache */
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	catalogCache := cache.NewCatalogCache(queries, redisClient, cfg.Redis.TTL)

	/* Initialize services */
	secretSource := secrets.NewEnvSource(cfg.Evaluation.SecretPrefix)
	executor := evaluation.NewExecutionService(registry, catalogCache, queries, secretSource, cfg.Evaluation.AdapterTimeout)
	comparisonService := comparison.NewService(queries, judgeCaller, cfg.Judge.Model, cfg.Judge.MaxTokens,
		cfg.Judge.Temperature, cfg.Judge.Timeout)

	/* Initialize API */
	traceHandlers := api.NewTraceHandlers(queries)
	evalHandlers := api.NewEvaluationHandlers(queries, executor, registry, catalogCache)
	analysisHandlers := api.NewAnalysisHandlers(queries)
	comparisonHandlers := api.NewComparisonHandlers(queries, comparisonService)

	/* Setup router */
	router := mux.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecoveryMiddleware)
	router.Use(api.LoggingMiddleware)
	router.Use(api.OrgMiddleware)

	/* API routes */
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/traces", traceHandlers.CreateTrace).Methods("POST")
	apiRouter.HandleFunc("/traces", traceHandlers.ListTraces).Methods("GET")
	apiRouter.HandleFunc("/traces/{id}", traceHandlers.GetTrace).Methods("GET")
	apiRouter.HandleFunc("/traces/{trace_id}/evaluations", evalHandlers.RunEvaluations).Methods("POST")
	apiRouter.HandleFunc("/traces/{trace_id}/evaluations", evalHandlers.ListTraceEvaluations).Methods("GET")
	apiRouter.HandleFunc("/catalog", evalHandlers.CreateCatalogEntry).Methods("POST")
	apiRouter.HandleFunc("/catalog", evalHandlers.ListCatalogEntries).Methods("GET")
	apiRouter.HandleFunc("/catalog/{id}", evalHandlers.GetCatalogEntry).Methods("GET")
	apiRouter.HandleFunc("/catalog/{id}/evaluations", evalHandlers.ListCatalogEntryEvaluations).Methods("GET")
	apiRouter.HandleFunc("/catalog/{id}", evalHandlers.DeleteCatalogEntry).Methods("DELETE")
	apiRouter.HandleFunc("/adapters", evalHandlers.ListAdapters).Methods("GET")
	apiRouter.HandleFunc("/analyses", analysisHandlers.CreateAnalysis).Methods("POST")
	apiRouter.HandleFunc("/analyses", analysisHandlers.ListAnalyses).Methods("GET")
	apiRouter.HandleFunc("/analyses/{id}", analysisHandlers.GetAnalysis).Methods("GET")
	apiRouter.HandleFunc("/comparisons", comparisonHandlers.CreateComparison).Methods("POST")
	apiRouter.HandleFunc("/comparisons", comparisonHandlers.ListComparisons).Methods("GET")
	apiRouter.HandleFunc("/comparisons/{id}", comparisonHandlers.GetComparison).Methods("GET")
	apiRouter.HandleFunc("/comparisons/{id}", comparisonHandlers.DeleteComparison).Methods("DELETE")

	/* Health check */
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	/* Metrics endpoint */
	router.Handle("/metrics", metrics.MetricsHandler()).Methods("GET")

	/* Start server */
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	/* Graceful shutdown */
	go func() {
		fmt.Printf("Server starting on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed to start on %s: %v\n", addr, err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("Server forced to shutdown: %v\n", err)
	}

	fmt.Println("Server exited")
}
