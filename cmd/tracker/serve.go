package main

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mini-rodalies-3d/tracker/internal/config"
	"github.com/mini-rodalies-3d/tracker/internal/fetcher"
	"github.com/mini-rodalies-3d/tracker/internal/mapsync"
	"github.com/mini-rodalies-3d/tracker/internal/realtime"
	"github.com/mini-rodalies-3d/tracker/internal/repository"
	"github.com/mini-rodalies-3d/tracker/internal/server"
	"github.com/mini-rodalies-3d/tracker/internal/tracking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking HTTP server",
	Long:  `Serves the tracking API, the tracking view endpoints and, when a feed is configured, polls realtime vehicle positions.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshots := newFetcher(cfg, store)
	sessions := newFactory(cfg, snapshots)

	if cfg.PollingEnabled() {
		poller := realtime.NewPoller(store, cfg.GTFSVehiclePositionsURL)
		go poller.Run(ctx, cfg.PollInterval)
		log.Printf("Realtime polling every %v from %s", cfg.PollInterval, cfg.GTFSVehiclePositionsURL)
	}

	router := server.NewRouter(server.Deps{
		Store:       store,
		Sessions:    sessions,
		FormFetcher: snapshots,
		CORSOrigins: cfg.CORSOrigins,
	})
	return server.ListenAndServe(ctx, cfg.Port, router)
}

// newFetcher reads snapshots from the remote tracking API when one is
// configured, otherwise straight from the store
func newFetcher(cfg *config.Config, store repository.JourneyRepository) tracking.Fetcher {
	if cfg.UsesRemoteAPI() {
		return fetcher.NewHTTPFetcher(cfg.TrackAPIURL, cfg.FetchTimeout)
	}
	return fetcher.NewRepositoryFetcher(store)
}

func newFactory(cfg *config.Config, snapshots tracking.Fetcher) tracking.Factory {
	return tracking.Factory{
		Fetcher:        snapshots,
		Loader:         mapsync.NewHTTPLoader(&http.Client{}, cfg.ProbeMapAssets),
		Style:          cfg.MapStyle,
		FetchTimeout:   cfg.FetchTimeout,
		MapLoadTimeout: cfg.MapLoadTimeout,
	}
}
