package annotation

import (
	"encoding/json"
	"time"

	"github.com/clinlabel/labelstation/internal/detection"
)

type Status string

const (
	StatusUnlabeled  Status = "UNLABELED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSubmitted  Status = "SUBMITTED"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusDeprecated Status = "DEPRECATED"
	StatusAI         Status = "AI"
)

type Source string

const (
	SourceHuman Source = "HUMAN"
	SourceAI    Source = "AI"
)

// AIReferenceID is the sentinel ID of the synthetic AI set. It is
// never a persisted annotation ID, so mutation operations can never
// target the reference layer.
const AIReferenceID = "AI_REF"

// Set is one annotation layer for an image: a human submission at some
// point in its workflow, or the synthetic AI reference. IsVisible is
// UI-only state driving the comparison grid, never persisted.
type Set struct {
	ID                string          `json:"id"`
	LabeledBy         string          `json:"labeledBy"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	IsDeprecated      bool            `json:"isDeprecated"`
	RejectReason      string          `json:"rejectReason,omitempty"`
	DeprecationReason string          `json:"deprecationReason,omitempty"`
	Data              json.RawMessage `json:"data"`
	IsVisible         bool            `json:"isVisible"`
	Source            Source          `json:"source"`
}

// Boxes decodes the set's persisted annotation_data into an edit
// buffer. Undecodable data yields an empty buffer; historical layers
// render through the normalizer instead, which tolerates more shapes.
func (s *Set) Boxes() []detection.Box {
	var wire []detection.WireDetection
	if err := json.Unmarshal(s.Data, &wire); err != nil {
		return []detection.Box{}
	}
	return detection.BoxesFromWire(wire)
}

// Detections normalizes the set's raw data for overlay rendering.
func (s *Set) Detections() []detection.Detection {
	return detection.NormalizeJSON(s.Data)
}
