package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/autopilot-america/evidence.report/internal/api"
	"github.com/autopilot-america/evidence.report/internal/config"
	"github.com/autopilot-america/evidence.report/internal/db"
	"github.com/autopilot-america/evidence.report/internal/monitoring"
	"github.com/autopilot-america/evidence.report/internal/store"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbPath     = flag.String("db", "evidence.db", "SQLite database path")
	configPath = flag.String("config", "", "Optional tuning config (JSON)")
	identity   = flag.String("identity", "", "Client identity for remote receipt storage (empty disables remote reads)")
	verbose    = flag.Bool("verbose", false, "Enable per-request debug logging")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	monitoring.SetVerbose(*verbose)

	tuning := config.EmptyTuning()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuning(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	notifier := store.NewChannelNotifier()
	receipts := store.New(database, notifier, *identity,
		store.WithRetentionCap(tuning.GetRetentionCap()),
		store.WithRemoteTimeout(tuning.GetRemoteTimeout()),
	)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Drain the update channel so notifications never back up. This is where
	// a push transport would hang off once one exists.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-notifier.C:
				monitoring.Debugf("receipt list updated")
			case <-ctx.Done():
				log.Print("notifier routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// admin debugging routes: tailsql browser and backup download
		database.AttachAdminRoutes(mux)

		apiMux := api.NewServer(receipts, database, tuning).ServeMux()
		mux.Handle("/api/", apiMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		// Let in-flight receipt mirrors finish before the database closes.
		receipts.WaitMirrors()
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
