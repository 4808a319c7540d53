package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pawanpaudel93/nepse-analysis/internal/api"
	"github.com/pawanpaudel93/nepse-analysis/internal/api/handlers"
	"github.com/pawanpaudel93/nepse-analysis/internal/scheduler"
	"github.com/pawanpaudel93/nepse-analysis/internal/scheduler/jobs"
)

// serveCmd starts the HTTP API server with the reference refresh
// scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the REST API server and the daily reference refresh job.

Endpoints:
  GET  /health
  GET  /api/sectors
  GET  /api/securities
  GET  /api/floorsheet/{symbol}
  GET  /api/floorsheet/{symbol}/range
  GET  /api/sectors/{id}/floorsheet
  GET  /api/sectors/{id}/floorsheet/combined
  GET  /api/sectors/{id}/floorsheet/range
  GET  /api/jobs
  POST /api/jobs/{name}/run

Example:
  go run ./cmd/nepse serve
  go run ./cmd/nepse serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default from PORT env)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if servePort != "" {
		rt.cfg.Port = servePort
	}

	log := rt.logger

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewReferenceRefreshJob(rt.service, log)); err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	reportsHandler := handlers.NewReportsHandler(rt.service, log)
	jobsHandler := handlers.NewJobsHandler(sched, log)
	router := api.NewRouter(reportsHandler, jobsHandler, log)
	server := api.New(rt.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\nServer running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
