package mapview

import "time"

type Source string

const (
	SourceMarker Source = "marker"
	SourceMap    Source = "map"
	SourceNearby Source = "nearby"
)

// Selection is a user-chosen point that starts a lookup. Label is nil for bare map activations.
type Selection struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Label      *string   `json:"label,omitempty"`
	Source     Source    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
}

// LabelOr returns the label, or def when the selection has none.
func (s Selection) LabelOr(def string) string {
	if s.Label == nil {
		return def
	}
	return *s.Label
}
