/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the records engine server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open SQLite store (schema migrated on open)
  3. Create attachment store and report cache
  4. Register the cache as the store's mutation listener
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 3000)
  -db       SQLite database path (default: records.db)
            Use ":memory:" for an in-memory database
  -uploads  Attachment directory (default: ./uploads)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/sirupsen/logrus"

	"github.com/docuflow/records-engine/api"
	"github.com/docuflow/records-engine/filestore"
	"github.com/docuflow/records-engine/reportcache"
	"github.com/docuflow/records-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 3000, "HTTP server port")
	dbPath := flag.String("db", "records.db", "SQLite database path")
	uploadDir := flag.String("uploads", "./uploads", "attachment directory")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()
	store.UseLogger(log)

	files, err := filestore.New(*uploadDir)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize upload directory")
	}
	store.UseFileRemover(files)

	cache := reportcache.New(reportcache.DefaultTTL)
	store.OnMutation(cache)

	handler := api.NewHandler(store, cache, files)
	handler.Log = log
	handler.Chat = api.NewChatClientFromEnv()
	if handler.Chat == nil {
		log.Info("assistant passthrough disabled (no API key configured)")
	}

	// Background reaper for expired report entries. Expiry is also
	// enforced lazily on lookup.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(reportcache.DefaultTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cache.Sweep()
			case <-sweepDone:
				return
			}
		}
	}()
	defer close(sweepDone)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
}
