package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mini-rodalies-3d/tracker/internal/config"
	"github.com/mini-rodalies-3d/tracker/internal/fetcher"
	"github.com/mini-rodalies-3d/tracker/internal/mapsync"
	"github.com/mini-rodalies-3d/tracker/internal/models"
	"github.com/mini-rodalies-3d/tracker/internal/tracking"
)

var (
	trackAPIURL  string
	trackMapWait time.Duration
)

var trackCmd = &cobra.Command{
	Use:   "track <ticket-id>",
	Short: "Follow one ticket and print its view states",
	Long:  `Runs a tracking session for a ticket and prints every view state, then the drawn map scene, as JSON lines.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackAPIURL, "api", "", "Tracking API base URL (defaults to TRACK_API_URL, then the local store)")
	trackCmd.Flags().DurationVar(&trackMapWait, "map-wait", 5*time.Second, "How long to wait for the map before giving up")
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if trackAPIURL != "" {
		cfg.TrackAPIURL = trackAPIURL
	}

	var snapshots tracking.Fetcher
	if cfg.UsesRemoteAPI() {
		snapshots = fetcher.NewHTTPFetcher(cfg.TrackAPIURL, cfg.FetchTimeout)
	} else {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		snapshots = fetcher.NewRepositoryFetcher(store)
	}

	return trackTicket(ctx, cmd.OutOrStdout(), newFactory(cfg, snapshots), args[0], trackMapWait)
}

// trackLine is one JSON line of track output
type trackLine struct {
	State    *models.ViewState      `json:"state,omitempty"`
	Navigate string                 `json:"navigate,omitempty"`
	Scene    *mapsync.SceneDocument `json:"scene,omitempty"`
}

// trackTicket runs a session to completion and writes its output to out
func trackTicket(ctx context.Context, out io.Writer, factory tracking.Factory, ticketID string, mapWait time.Duration) error {
	enc := json.NewEncoder(out)
	var writeErr error
	emit := func(line trackLine) {
		if err := enc.Encode(line); err != nil && writeErr == nil {
			writeErr = err
		}
	}

	session, ctl := factory.New(
		tracking.NavigatorFunc(func(path string) { emit(trackLine{Navigate: path}) }),
		tracking.PresenterFunc(func(s models.ViewState) { emit(trackLine{State: &s}) }),
	)
	defer session.Teardown()
	stop := context.AfterFunc(ctx, session.Teardown)
	defer stop()

	session.Start(ticketID)
	if writeErr != nil {
		return writeErr
	}

	state, ok := session.Current()
	if !ok || state.Kind != models.ViewDisplay || ctl == nil {
		return nil
	}

	timer := time.NewTimer(mapWait)
	defer timer.Stop()
	select {
	case <-ctl.Ready():
	case <-timer.C:
		return fmt.Errorf("map still %s after %v", ctl.State(), mapWait)
	case <-ctx.Done():
		return ctx.Err()
	}

	if scene, ok := ctl.Handle().Surface.(*mapsync.Scene); ok {
		doc := scene.Document()
		emit(trackLine{Scene: &doc})
	}
	return writeErr
}
