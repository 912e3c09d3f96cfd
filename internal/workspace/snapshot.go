package workspace

import (
	"time"

	"github.com/clinlabel/labelstation/internal/annotation"
	"github.com/clinlabel/labelstation/internal/detection"
)

// LayerSummary is one history entry as shown in the sidebar; the raw
// annotation data stays server-side in the session.
type LayerSummary struct {
	ID                string    `json:"id"`
	LabeledBy         string    `json:"labeledBy"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	IsDeprecated      bool      `json:"isDeprecated"`
	RejectReason      string    `json:"rejectReason,omitempty"`
	DeprecationReason string    `json:"deprecationReason,omitempty"`
	IsVisible         bool      `json:"isVisible"`
	Source            string    `json:"source"`
}

// State is a point-in-time view of a session for UI clients.
type State struct {
	SessionID   string          `json:"session_id"`
	ImageID     string          `json:"image_id"`
	Meta        ImageMeta       `json:"meta"`
	Status      string          `json:"status"`
	Editing     bool            `json:"editing"`
	CanDraw     bool            `json:"can_draw"`
	ReadOnly    bool            `json:"read_only"`
	Tool        Tool            `json:"tool"`
	ClassID     int             `json:"class_id"`
	Scale       float64         `json:"scale"`
	Boxes       []detection.Box `json:"boxes"`
	TempBox     *detection.Box  `json:"temp_box,omitempty"`
	Notice      string          `json:"notice,omitempty"`
	GridColumns int             `json:"grid_columns"`
	Layers      []LayerSummary  `json:"layers"`
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	layers := make([]LayerSummary, 0, len(s.history.Sets))
	for _, set := range s.history.Sets {
		layers = append(layers, LayerSummary{
			ID:                set.ID,
			LabeledBy:         set.LabeledBy,
			Status:            string(set.Status),
			CreatedAt:         set.CreatedAt,
			IsDeprecated:      set.IsDeprecated,
			RejectReason:      set.RejectReason,
			DeprecationReason: set.DeprecationReason,
			IsVisible:         set.IsVisible,
			Source:            string(set.Source),
		})
	}

	boxes := make([]detection.Box, len(s.boxes))
	copy(boxes, s.boxes)

	var temp *detection.Box
	if s.temp != nil {
		t := *s.temp
		temp = &t
	}

	return State{
		SessionID:   s.ID,
		ImageID:     s.ImageID,
		Meta:        s.meta,
		Status:      string(s.status),
		Editing:     s.editing,
		CanDraw:     s.canDraw(),
		ReadOnly:    annotation.IsReadOnly(s.status, s.editing),
		Tool:        s.tool,
		ClassID:     s.classID,
		Scale:       s.scale,
		Boxes:       boxes,
		TempBox:     temp,
		Notice:      s.notice,
		GridColumns: annotation.GridColumns(len(s.history.VisibleSets())),
		Layers:      layers,
	}
}

// ImageURL exposes the source image location for overlay rendering.
func (s *Session) ImageURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.URL
}

// CurrentDetections converts the edit buffer to canonical detections
// for the primary overlay panel.
func (s *Session) CurrentDetections() []detection.Detection {
	s.mu.Lock()
	defer s.mu.Unlock()

	dets := make([]detection.Detection, 0, len(s.boxes))
	for _, b := range s.boxes {
		dets = append(dets, b.ToDetection())
	}
	return dets
}

// LayerDetections normalizes one historical layer's frozen data for a
// read-only comparison panel.
func (s *Session) LayerDetections(setID string) ([]detection.Detection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.history.Find(setID)
	if !ok {
		return nil, false
	}
	return set.Detections(), true
}
