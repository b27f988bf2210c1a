package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"forceview/internal/config"
	"forceview/internal/handler"
	"forceview/internal/hub"
	"forceview/internal/metrics"
	"forceview/internal/repository/sqlite"
	"forceview/internal/service"
	"forceview/internal/watcher"
)

//go:embed web/*
var webFS embed.FS

// maxBodyBytes bounds every request body
const maxBodyBytes = 32 << 20

func main() {
	// Command line flags override the config file and environment
	configPath := flag.String("config", "", "Config file path (YAML or TOML)")
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	snapshotPath := flag.String("snapshot", "", "Serve this JSON or YAML snapshot instead of the database")
	watch := flag.Bool("watch", false, "Rebuild views when the snapshot file changes")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting forceview server...")

	// A missing .env file is fine
	_ = godotenv.Load()

	cfg, loadedFrom := loadConfig(*configPath)
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *snapshotPath != "" {
		cfg.Snapshot.Path = *snapshotPath
	}
	if *watch {
		cfg.Snapshot.Watch = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if loadedFrom != "" {
		log.Printf("Config loaded from %s", loadedFrom)
	}
	log.Printf("Config:\n%s", cfg.Summary())

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	reg := metrics.NewRegistry()

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Initialize SSE hub
	sseHub := hub.New(hub.WithGauge(reg.SSEClients))
	go sseHub.Run()

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 256)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(hub.Message{
				View:   event.View,
				Client: event.Client,
				Data:   event,
			})
		}
	}()

	// Initialize services
	graphSvc := service.NewGraphService(repo, eventBus)
	if cfg.Snapshot.Path != "" {
		graphSvc.WithSnapshotFile(cfg.Snapshot.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views := service.NewViewManager(graphSvc, cfg.ViewConfig(), cfg.ViewRoutes(), eventBus, reg)
	if _, err := views.Start(ctx); err != nil {
		log.Fatalf("Failed to start default view: %v", err)
	}

	// Views are rebuilt, never patched, when the snapshot changes
	if cfg.Snapshot.Path != "" && cfg.Snapshot.Watch {
		w := watcher.New(cfg.Snapshot.Path, views.RebuildAll)
		go func() {
			if err := w.Watch(ctx); err != nil && err != context.Canceled {
				log.Printf("Snapshot watcher stopped: %v", err)
			}
		}()
	}

	// Imports and edits of the database rebuild running views as well
	importChan := make(chan service.Event, 16)
	eventBus.Subscribe(importChan)
	go func() {
		for {
			select {
			case event := <-importChan:
				switch event.Type {
				case service.EventGraphImported, service.EventGraphCleared, service.EventGraphChanged:
					views.RebuildAll(ctx)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Setup routes
	mux := http.NewServeMux()
	handler.NewGraphHandler(graphSvc).Register(mux)
	handler.NewViewHandler(views, reg).Register(mux)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Static files from embedded filesystem
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		log.Fatalf("Failed to get embedded web content: %v", err)
	}
	mux.Handle("/", http.FileServer(http.FS(webContent)))

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.Metrics(reg),
		handler.CORS,
		handler.Logger,
		handler.BodyLimit(maxBodyBytes),
	)

	// No write timeout: the event stream is long-lived
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           finalHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	views.CloseAll()
	cancel()

	log.Println("Server stopped")
}

// loadConfig reads the config file named by path, or searches the default
// locations when path is empty
func loadConfig(path string) (*config.Config, string) {
	var (
		cfg  *config.Config
		from string
		err  error
	)
	if path != "" {
		cfg, from, err = config.LoadFromPath(path)
	} else {
		cfg, from, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", from, err)
	}
	return cfg, from
}
