package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/reader/internal/bookshelf"
	"github.com/mrlokans/reader/internal/config"
	"github.com/mrlokans/reader/internal/database"
	http_controllers "github.com/mrlokans/reader/internal/http"
	"github.com/mrlokans/reader/internal/reading"
	"github.com/mrlokans/reader/internal/replace"
	"github.com/mrlokans/reader/internal/scheduler"
	"github.com/mrlokans/reader/internal/source"
	"github.com/mrlokans/reader/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Reader v%s", version)

	if cfg.Source.APIURL == "" {
		log.Fatalf("Source API URL is not set. Set 'SOURCE_API_URL' to the book-source aggregation endpoint.")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	shelf := bookshelf.NewRepository(db.DB)
	rules := replace.NewRepository(db.DB)

	// Compile the replace-rule engine from persisted rules
	enabledRules, err := rules.ListEnabledRules()
	if err != nil {
		log.Fatalf("Failed to load replace rules: %v", err)
	}
	engine := replace.NewEngine(enabledRules)
	log.Printf("Replace engine compiled with %d active rules", engine.Len())

	// Source API client with the latency-based network-quality monitor
	monitor := source.NewQualityMonitor()
	sourceClient := source.NewClient(cfg.Source.APIURL, monitor)
	log.Printf("Using source API at %s", cfg.Source.APIURL)

	// Reading sessions: every open book gets its own session, cache and
	// scroll window, built around the shared fetcher and capabilities.
	markers := append([]string(nil), reading.DefaultRestrictionMarkers...)
	markers = append(markers, cfg.Reading.ExtraMarkers...)
	health := reading.NewHealthChecker(cfg.Reading.MinContentLength, markers)
	registry := http_controllers.NewSessionRegistry(func() *reading.Session {
		return reading.NewSession(sourceClient, reading.Options{
			Health:          health,
			Quality:         monitor.Quality,
			Transform:       engine.Apply,
			DisablePrefetch: !cfg.Reading.PrefetchEnabled,
		})
	})

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var shelfScheduler *scheduler.ShelfRefreshScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewRefreshCatalogQueue(sourceClient, shelf),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Shelf.RefreshEnabled {
			shelfScheduler = scheduler.NewShelfRefreshScheduler(shelf, taskClient, cfg.Shelf.RefreshSchedule)
			if err := shelfScheduler.Start(); err != nil {
				log.Fatalf("Failed to start shelf refresh scheduler: %v", err)
			}
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:      db,
		Shelf:         shelf,
		SourceClient:  sourceClient,
		Rules:         rules,
		ReplaceEngine: engine,
		Registry:      registry,
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		if shelfScheduler != nil {
			shelfScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		registry.CloseAll()
	}

	Serve(router, cfg, onShutdown)
}
