package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/cwbudde/lumenforge/internal/jobserver"
	"github.com/cwbudde/lumenforge/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveAddr       string
	servePort       int
	serveDataDir    string
	serveCpuProfile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for background render jobs",
	Long: `Starts an HTTP server that accepts render jobs via REST API.
Jobs run in the background; progress can be watched via SSE, the bundled
HTML UI, or the status subcommand.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost", "Server bind address")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for checkpoints and film snapshots")
	serveCmd.Flags().StringVar(&serveCpuProfile, "cpuprofile", "", "Write CPU profile to file")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveCpuProfile != "" {
		f, err := os.Create(serveCpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	addr := fmt.Sprintf("%s:%d", serveAddr, servePort)

	checkpoints, err := store.NewFSStore(serveDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	films, err := store.NewFilmStore(serveDataDir)
	if err != nil {
		return fmt.Errorf("failed to create film store: %w", err)
	}

	srv := jobserver.NewServer(jobserver.Options{
		Addr:        addr,
		Checkpoints: checkpoints,
		Films:       films,
		TraceDir:    serveDataDir,
		LoadScene:   loadFixtureScene,
	})

	fmt.Printf("Server listening on http://%s\n", addr)
	fmt.Println("API endpoints:")
	fmt.Println("  POST   /api/v1/jobs             - Create new job")
	fmt.Println("  GET    /api/v1/jobs             - List all jobs")
	fmt.Println("  GET    /api/v1/jobs/:id/status  - Get job status")
	fmt.Println("  GET    /api/v1/jobs/:id/stream  - SSE progress stream")
	fmt.Println("  POST   /api/v1/jobs/:id/resume  - Resume from checkpoint")
	fmt.Println("\nPress Ctrl+C to shutdown")

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- srv.Start() }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		fmt.Printf("\nShutdown signal received (%s), shutting down...\n", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fmt.Println("Server stopped gracefully")
	}

	return nil
}
