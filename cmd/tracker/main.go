package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mini-rodalies-3d/tracker/internal/config"
	"github.com/mini-rodalies-3d/tracker/internal/repository"
)

var envDir string

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Ticket journey tracker",
	Long:  `Serves and follows train journeys by ticket: tracking API, live tracking view, realtime vehicle positions.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnvFiles(envDir)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", ".", "Directory holding .env and .env.local")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore connects the configured journey store
func openStore(ctx context.Context, cfg *config.Config) (repository.JourneyRepository, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		log.Println("Connecting to PostgreSQL database")
		return repository.NewPostgresJourneyRepository(ctx, cfg.DatabaseURL)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		log.Printf("Connecting to SQLite database: %s", cfg.SQLitePath)
		return repository.NewSQLiteJourneyRepository(cfg.SQLitePath)
	}
}
