package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catering/dashboard/internal/collections"
	"github.com/catering/dashboard/internal/config"
	"github.com/catering/dashboard/internal/database"
	"github.com/catering/dashboard/internal/executor"
	"github.com/catering/dashboard/internal/fixtures"
	"github.com/catering/dashboard/internal/orchestrator"
	"github.com/catering/dashboard/internal/server"
	"github.com/catering/dashboard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Project directory: %s", cfg.ProjectDir)

	unitCmd := mustCommand("unit", cfg.UnitCommand)
	e2eCmd := mustCommand("e2e", cfg.E2ECommand)
	collectionCmd := mustCommand("collection", cfg.CollectionCommand)

	var store database.Store
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: results will not be persisted: %v", err)
		} else {
			log.Println("✓ Connected to results database")
			defer db.Close()
			store = db
		}
	}

	schema, err := fixtures.NewSchemaPreparer(cfg.E2EMySQLDSN, cfg.E2ESchema)
	if err != nil {
		log.Fatalf("Invalid end-to-end database settings: %v", err)
	}

	exec := executor.NewProcessExecutor()
	batch := collections.NewRunner(exec, collections.Options{
		Command:        collectionCmd,
		CollectionsDir: cfg.Path(cfg.CollectionsDir),
		ReportDir:      cfg.Path(cfg.CollectionReportDir),
		WorkDir:        cfg.ProjectDir,
		Timeout:        cfg.CollectionTimeout,
	})

	coord := orchestrator.New(exec, batch, orchestrator.Options{
		UnitCommand:               unitCmd,
		E2ECommand:                e2eCmd,
		UnitReportPath:            cfg.Path(cfg.UnitReportPath),
		E2EReportPath:             cfg.Path(cfg.E2EReportPath),
		WorkDir:                   cfg.ProjectDir,
		CollectionNames:           cfg.CollectionNames,
		RunAllIncludesCollections: cfg.RunAllIncludesCollections,
		RunTimeout:                cfg.RunTimeout,
		StreamOutput:              cfg.StreamOutput,
		Store:                     store,
		Fixtures:                  schema,
	})
	coord.LoadBootResults(cfg.Path(cfg.BootReportPath))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.RunInterval > 0 {
		go worker.NewWorker(coord, cfg.RunInterval).Start(ctx)
	}

	srv := server.NewServer(coord, server.Options{
		UnitReportPath: cfg.Path(cfg.UnitReportPath),
		E2EReportPath:  cfg.Path(cfg.E2EReportPath),
		CORSOrigins:    cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down...", sig)
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("Starting test dashboard on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
	log.Println("Server stopped.")
}

func mustCommand(name, line string) executor.Command {
	cmd, err := executor.ParseCommand(line)
	if err != nil {
		log.Fatalf("Invalid %s command %q: %v", name, line, err)
	}
	return cmd
}
