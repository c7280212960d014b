package main

import (
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/mini-rodalies-3d/tracker/internal/config"
	"github.com/mini-rodalies-3d/tracker/internal/realtime"
)

var pollOnce bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll realtime vehicle positions into the journey store",
	Args:  cobra.NoArgs,
	RunE:  runPoll,
}

func init() {
	pollCmd.Flags().BoolVar(&pollOnce, "once", false, "Poll a single time and exit")
}

func runPoll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.PollingEnabled() {
		return errors.New("GTFS_VEHICLE_POSITIONS_URL is not set")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	poller := realtime.NewPoller(store, cfg.GTFSVehiclePositionsURL)
	if pollOnce {
		moved, err := poller.Poll(ctx)
		if err != nil {
			return err
		}
		log.Printf("Moved %d journeys", moved)
		return nil
	}

	log.Printf("Poller running (poll every %v)", cfg.PollInterval)
	poller.Run(ctx, cfg.PollInterval)
	return nil
}
