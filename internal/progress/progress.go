// Package progress derives a journey's travel percentage from its coordinates.
//
// Progress is the straight-line distance from the origin to the current
// position divided by the straight-line distance from the origin to the
// destination. It is a radial ratio, not a fraction of the travelled path: a
// vehicle off the origin-destination line reports its distance from the
// origin, and one past the destination is clamped to 100.
package progress

import (
	"math"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

// Percent returns the journey progress in [0, 100].
// A journey whose origin equals its destination always reports 0.
func Percent(origin, destination, current models.Point) int {
	total := distance(origin, destination)
	if !(total > 0) {
		return 0
	}

	// Clamp before converting: an infinite or huge ratio does not fit an int.
	ratio := distance(origin, current) / total
	if !(ratio < 1) {
		return 100
	}
	return int(math.Round(ratio * 100))
}

// Compute returns the progress state for a snapshot
func Compute(snapshot models.JourneySnapshot) models.ProgressState {
	return models.ProgressState{
		Percent: Percent(snapshot.Origin, snapshot.Destination, snapshot.Current),
	}
}

func distance(a, b models.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
