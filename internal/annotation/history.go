package annotation

import (
	"fmt"
	"time"

	"github.com/clinlabel/labelstation/internal/aicore"
)

// History holds every annotation layer known for one image: the human
// submissions in backend order, then the synthetic AI reference last.
type History struct {
	Sets []Set
}

// BuildHistory converts a backend detail payload into the layer list.
// Every layer starts hidden.
func BuildHistory(detail *aicore.ImageDetail) *History {
	sets := make([]Set, 0, len(detail.AnnotationHistory)+1)

	for _, rec := range detail.AnnotationHistory {
		labeledBy := rec.LabeledByName
		if labeledBy == "" {
			labeledBy = "Anonymous"
		}
		sets = append(sets, Set{
			ID:                rec.AnnotationID,
			LabeledBy:         labeledBy,
			Status:            Status(rec.Status),
			CreatedAt:         rec.CreatedAt,
			IsDeprecated:      Status(rec.Status) == StatusDeprecated,
			RejectReason:      rec.RejectionReason,
			DeprecationReason: rec.DeprecationReason,
			Data:              rec.AnnotationData,
			IsVisible:         false,
			Source:            SourceHuman,
		})
	}

	if detail.AIReference != nil {
		sets = append(sets, Set{
			ID:           AIReferenceID,
			LabeledBy:    fmt.Sprintf("AI (%s)", detail.AIReference.Model),
			Status:       StatusAI,
			CreatedAt:    time.Now(),
			IsDeprecated: false,
			Data:         detail.AIReference.Data,
			IsVisible:    false,
			Source:       SourceAI,
		})
	}

	return &History{Sets: sets}
}

// Toggle flips one layer's visibility and leaves every other layer
// untouched. Unknown IDs are a no-op.
func (h *History) Toggle(id string) bool {
	for i := range h.Sets {
		if h.Sets[i].ID == id {
			h.Sets[i].IsVisible = !h.Sets[i].IsVisible
			return true
		}
	}
	return false
}

// Find returns the layer with the given ID.
func (h *History) Find(id string) (*Set, bool) {
	for i := range h.Sets {
		if h.Sets[i].ID == id {
			return &h.Sets[i], true
		}
	}
	return nil, false
}

// VisibleSets returns the layers toggled on for comparison.
func (h *History) VisibleSets() []Set {
	visible := make([]Set, 0)
	for _, s := range h.Sets {
		if s.IsVisible {
			visible = append(visible, s)
		}
	}
	return visible
}

// GridColumns maps the panel count (primary view plus toggled layers)
// to the comparison-grid column count: 1, 2, then 3 for anything more.
func GridColumns(visibleSets int) int {
	switch panels := 1 + visibleSets; {
	case panels <= 1:
		return 1
	case panels == 2:
		return 2
	default:
		return 3
	}
}
