package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mini-rodalies-3d/tracker/internal/config"
	"github.com/mini-rodalies-3d/tracker/internal/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yml>",
	Short: "Load journeys from a YAML file into the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

// seedFile is the YAML layout accepted by seed
type seedFile struct {
	Journeys []models.JourneySnapshot `yaml:"journeys"`
}

// JourneySaver is the write side of the store seed needs
type JourneySaver interface {
	SaveJourney(ctx context.Context, journey models.JourneySnapshot) error
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	journeys, err := parseSeed(f)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := seedJourneys(ctx, store, journeys); err != nil {
		return err
	}
	log.Printf("Seeded %d journeys", len(journeys))
	return nil
}

// parseSeed decodes and validates a seed file
func parseSeed(r io.Reader) ([]models.JourneySnapshot, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, j := range file.Journeys {
		rec := models.RecordFromSnapshot(j)
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("journey %d (%q): %w", i, j.TicketID, err)
		}
	}
	return file.Journeys, nil
}

func seedJourneys(ctx context.Context, store JourneySaver, journeys []models.JourneySnapshot) error {
	for _, j := range journeys {
		if err := store.SaveJourney(ctx, j); err != nil {
			return err
		}
	}
	return nil
}
