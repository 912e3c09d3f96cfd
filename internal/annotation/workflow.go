package annotation

import (
	"strings"

	"github.com/clinlabel/labelstation/internal/detection"
)

// Resolution is the outcome of loading an image's history: which
// status governs the workspace, what the edit buffer starts with, and
// whether editing is live.
type Resolution struct {
	Status  Status
	Boxes   []detection.Box
	Editing bool
	Notice  string
}

// Resolve decides the current annotation for an image. The rule order
// is load-bearing and must not change: a non-deprecated REJECTED set
// outranks an older APPROVED one because rule 3 is only reached once
// rules 1–2 found nothing.
//
//  1. non-deprecated human IN_PROGRESS or SUBMITTED: load its boxes,
//     editing only while IN_PROGRESS
//  2. non-deprecated human APPROVED: load read-only
//  3. non-deprecated human REJECTED: empty buffer, editing enabled;
//     rejected work is redone from scratch
//  4. nothing usable: UNLABELED, empty buffer, editing enabled
func Resolve(h *History) Resolution {
	if s := h.findHuman(StatusInProgress, StatusSubmitted); s != nil {
		return Resolution{
			Status:  s.Status,
			Boxes:   s.Boxes(),
			Editing: s.Status == StatusInProgress,
		}
	}

	if s := h.findHuman(StatusApproved, StatusRejected); s != nil {
		if s.Status == StatusRejected {
			return Resolution{
				Status:  StatusRejected,
				Boxes:   []detection.Box{},
				Editing: true,
				Notice:  "Annotation was rejected. Start labeling again from scratch.",
			}
		}
		return Resolution{
			Status:  StatusApproved,
			Boxes:   s.Boxes(),
			Editing: false,
		}
	}

	return Resolution{
		Status:  StatusUnlabeled,
		Boxes:   []detection.Box{},
		Editing: true,
	}
}

func (h *History) findHuman(statuses ...Status) *Set {
	for i := range h.Sets {
		s := &h.Sets[i]
		if s.Source != SourceHuman || s.IsDeprecated {
			continue
		}
		for _, want := range statuses {
			if s.Status == want {
				return s
			}
		}
	}
	return nil
}

// CanDraw reports whether the edit buffer accepts drawing and
// deletion in the given workspace state.
func CanDraw(status Status, editing bool) bool {
	if editing {
		return true
	}
	switch status {
	case StatusUnlabeled, StatusInProgress, StatusRejected:
		return true
	}
	return false
}

// IsReadOnly reports whether the main panel is in view-only mode.
func IsReadOnly(status Status, editing bool) bool {
	return (status == StatusApproved || status == StatusSubmitted) && !editing
}

// CanApprove and CanReject gate the review actions: only a submitted
// annotation that is not being edited can be concluded.
func CanApprove(status Status, editing bool) bool {
	return status == StatusSubmitted && !editing
}

func CanReject(status Status, editing bool) bool {
	return status == StatusSubmitted && !editing
}

// CanEditApproved gates the supersede flow on an approved record.
func CanEditApproved(status Status, editing bool) bool {
	return status == StatusApproved && !editing
}

// CanDeprecate reports whether a layer may be manually deprecated:
// human-sourced and not already terminal. The AI reference never
// qualifies.
func CanDeprecate(s *Set) bool {
	return s.Source == SourceHuman && !s.IsDeprecated && s.ID != AIReferenceID
}

// ValidateRejectReason enforces the non-empty free-text requirement
// before any network call is issued.
func ValidateRejectReason(reason string) bool {
	return strings.TrimSpace(reason) != ""
}

// DefaultDeprecationReason is sent when a manual deprecation carries
// no user-supplied reason.
const DefaultDeprecationReason = "Manually marked as deprecated by reviewer"
