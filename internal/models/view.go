package models

// ViewKind identifies which render state the presentation layer should draw
type ViewKind string

const (
	ViewLoading  ViewKind = "loading"
	ViewRedirect ViewKind = "redirect"
	ViewDisplay  ViewKind = "display"
)

// Redirect reasons
const (
	ReasonMissingID = "missing-id"
	ReasonNotFound  = "not-found"
)

// ListingPath is where every failed tracking view sends the user
const ListingPath = "/tickets"

// ProgressState is the derived travel progress for one snapshot
type ProgressState struct {
	Percent int `json:"percent"`
}

// ViewState is everything the presentation layer receives for one render
type ViewState struct {
	Kind     ViewKind         `json:"kind"`
	Percent  int              `json:"percent"`
	Loading  bool             `json:"loading"`
	Redirect *string          `json:"redirect"`
	Reason   string           `json:"reason,omitempty"`
	Snapshot *JourneySnapshot `json:"snapshot"`
	Map      string           `json:"map,omitempty"`
}

// LoadingState is emitted while the snapshot fetch is in flight
func LoadingState() ViewState {
	return ViewState{Kind: ViewLoading, Loading: true}
}

// RedirectState sends the user back to the ticket listing
func RedirectState(reason string) ViewState {
	path := ListingPath
	return ViewState{Kind: ViewRedirect, Redirect: &path, Reason: reason}
}

// DisplayState carries a snapshot, its progress and the map state at emission time
func DisplayState(snapshot JourneySnapshot, progress ProgressState, mapState string) ViewState {
	return ViewState{
		Kind:     ViewDisplay,
		Percent:  progress.Percent,
		Snapshot: &snapshot,
		Map:      mapState,
	}
}
