package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingRecordDecodesOriginalPayload(t *testing.T) {
	body := `{"ticketid":"T123","name":"Madrid - Barcelona","reverse":false,
		"OriginX":0,"OriginY":0,"DestinationX":10,"DestinationY":0,
		"ActualX":5,"ActualY":0,"speed":120}`

	var rec TrackingRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	require.NoError(t, rec.Validate())

	snap := rec.ToSnapshot()
	assert.Equal(t, "T123", snap.TicketID)
	assert.Equal(t, "Madrid - Barcelona", snap.DisplayName)
	assert.Equal(t, Point{X: 10, Y: 0}, snap.Destination)
	assert.Equal(t, Point{X: 5, Y: 0}, snap.Current)
	assert.Equal(t, 120.0, snap.Speed)
}

func TestTrackingRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     TrackingRecord
		wantErr bool
	}{
		{"valid", TrackingRecord{TicketID: "T1"}, false},
		{"missing ticket", TrackingRecord{Name: "A - B"}, true},
		{"blank ticket", TrackingRecord{TicketID: "   "}, true},
		{"negative speed", TrackingRecord{TicketID: "T1", Speed: -3}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordFromSnapshotKeepsWireNames(t *testing.T) {
	snap := JourneySnapshot{
		TicketID:    "T9",
		DisplayName: "Sevilla - Cordoba",
		Origin:      Point{X: -5.98, Y: 37.39},
		Destination: Point{X: -4.78, Y: 37.89},
		Current:     Point{X: -5.2, Y: 37.6},
		Reverse:     true,
		Speed:       250,
		VehicleKey:  "AVE-1",
	}

	raw, err := json.Marshal(RecordFromSnapshot(snap))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"ticketid", "name", "reverse", "OriginX", "OriginY", "DestinationX", "DestinationY", "ActualX", "ActualY", "speed"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "VehicleKey")
	assert.Equal(t, true, fields["reverse"])
}

func TestEndpoints(t *testing.T) {
	origin, destination := JourneySnapshot{DisplayName: "Madrid - Barcelona"}.Endpoints()
	assert.Equal(t, "Madrid", origin)
	assert.Equal(t, "Barcelona", destination)

	origin, destination = JourneySnapshot{DisplayName: "Madrid"}.Endpoints()
	assert.Equal(t, "Madrid", origin)
	assert.Equal(t, "Destino", destination)

	origin, destination = JourneySnapshot{}.Endpoints()
	assert.Equal(t, "Origen", origin)
	assert.Equal(t, "Destino", destination)
}

func TestViewStates(t *testing.T) {
	loading := LoadingState()
	assert.Equal(t, ViewLoading, loading.Kind)
	assert.True(t, loading.Loading)
	assert.Nil(t, loading.Redirect)

	redirect := RedirectState(ReasonNotFound)
	require.NotNil(t, redirect.Redirect)
	assert.Equal(t, "/tickets", *redirect.Redirect)
	assert.Equal(t, "not-found", redirect.Reason)
	assert.Nil(t, redirect.Snapshot)

	display := DisplayState(JourneySnapshot{TicketID: "T1"}, ProgressState{Percent: 42}, "loading")
	assert.Equal(t, ViewDisplay, display.Kind)
	assert.Equal(t, 42, display.Percent)
	require.NotNil(t, display.Snapshot)
	assert.Equal(t, "T1", display.Snapshot.TicketID)
	assert.False(t, display.Loading)
}
