package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinlabel/labelstation/internal/aicore"
	"github.com/clinlabel/labelstation/internal/annotation"
	"github.com/clinlabel/labelstation/internal/database"
	"github.com/clinlabel/labelstation/internal/detection"
)

// Backend is the slice of the ai-core client the workspace needs.
type Backend interface {
	GetResultImageDetail(ctx context.Context, imageID string) (*aicore.ImageDetail, error)
	SaveHumanAnnotation(ctx context.Context, imageID string, req aicore.SaveAnnotationRequest) error
	ApproveAnnotation(ctx context.Context, imageID, approvedBy string) error
	RejectAnnotation(ctx context.Context, imageID, rejectedBy, reason string) error
	DeprecateAnnotation(ctx context.Context, annotationID, reason string) error
}

// DraftStore persists unsaved edit buffers across workstation restarts.
type DraftStore interface {
	Save(ctx context.Context, imageID, labeledBy string, boxes []detection.Box) error
	Get(ctx context.Context, imageID string) (*database.Draft, error)
	Delete(ctx context.Context, imageID string) error
}

var (
	ErrBusy                 = errors.New("another action is still in flight")
	ErrReadOnly             = errors.New("workspace is read-only")
	ErrNotAllowed           = errors.New("action not available in current state")
	ErrConfirmationRequired = errors.New("action requires confirmation")
	ErrEmptyReason          = errors.New("a rejection reason is required")
)

type ImageMeta struct {
	URL        string `json:"url"`
	FileName   string `json:"fileName"`
	Uploader   string `json:"uploader"`
	UploadedAt string `json:"uploadedAt"`
}

// Session is one user's editing session on one image. It exclusively
// owns the edit buffer and a read replica of the server-side history
// for its lifetime; both are discarded on close. The buffer is purely
// local until Save; no action mutates it on a failed round trip.
type Session struct {
	ID      string
	ImageID string
	User    string

	mu      sync.Mutex
	meta    ImageMeta
	history *annotation.History
	boxes   []detection.Box
	status  annotation.Status
	editing bool
	notice  string

	tool    Tool
	classID int
	scale   float64

	drawing bool
	startX  float64
	startY  float64
	temp    *detection.Box

	// busy gates mutating backend calls: the session never issues two
	// concurrently for its image.
	busy bool

	backend Backend
	drafts  DraftStore
}

// Open loads an image's detail, resolves the current annotation per
// the workflow rules and restores any local draft when editing is
// enabled.
func Open(ctx context.Context, backend Backend, drafts DraftStore, imageID, user string) (*Session, error) {
	s := &Session{
		ID:      uuid.New().String(),
		ImageID: imageID,
		User:    user,
		tool:    ToolSelect,
		scale:   1.0,
		backend: backend,
		drafts:  drafts,
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	if s.editing && drafts != nil {
		draft, err := drafts.Get(ctx, imageID)
		if err != nil {
			log.Printf("[WORKSPACE] Failed to load draft for %s: %v", imageID, err)
		} else if draft != nil {
			s.boxes = draft.Boxes
			s.notice = "Restored unsaved draft from " + draft.UpdatedAt.Format(time.RFC3339)
		}
	}

	return s, nil
}

func (s *Session) load(ctx context.Context) error {
	detail, err := s.backend.GetResultImageDetail(ctx, s.ImageID)
	if err != nil {
		return fmt.Errorf("loading workspace: %w", err)
	}

	s.meta = ImageMeta{
		URL:        detail.ImageInfo.OriginalImageURL,
		FileName:   detail.ImageInfo.FileName,
		Uploader:   detail.ImageInfo.UploadedByName,
		UploadedAt: detail.ImageInfo.UploadedAt,
	}

	s.history = annotation.BuildHistory(detail)
	res := annotation.Resolve(s.history)
	s.status = res.Status
	s.boxes = res.Boxes
	s.editing = res.Editing
	s.notice = res.Notice
	return nil
}

// refresh refetches history after a confirmed mutation. Visibility
// toggles reset along with the rebuilt layer list.
func (s *Session) refresh(ctx context.Context) error {
	return s.load(ctx)
}

func (s *Session) canDraw() bool {
	return annotation.CanDraw(s.status, s.editing)
}

// beginAction marks a mutating call in flight, failing when one
// already is.
func (s *Session) beginAction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) endAction() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Save posts the edit buffer as a SUBMITTED annotation. On success the
// workspace leaves editing mode, the local draft is dropped and the
// history is refetched; on failure local state is untouched.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if !s.canDraw() {
		s.mu.Unlock()
		return ErrReadOnly
	}
	wire := detection.BoxesToWire(s.boxes)
	s.mu.Unlock()

	if err := s.beginAction(); err != nil {
		return err
	}
	defer s.endAction()

	err := s.backend.SaveHumanAnnotation(ctx, s.ImageID, aicore.SaveAnnotationRequest{
		AnnotationData:   wire,
		LabeledBy:        s.User,
		AnnotationStatus: string(annotation.StatusSubmitted),
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = false
	if s.drafts != nil {
		if err := s.drafts.Delete(ctx, s.ImageID); err != nil {
			log.Printf("[WORKSPACE] Failed to drop draft for %s: %v", s.ImageID, err)
		}
	}
	return s.refresh(ctx)
}

// Approve concludes a submitted annotation. Confirmation is a
// two-step commit: the first call without confirm fails and performs
// nothing.
func (s *Session) Approve(ctx context.Context, confirm bool) error {
	s.mu.Lock()
	if !annotation.CanApprove(s.status, s.editing) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.mu.Unlock()

	if !confirm {
		return ErrConfirmationRequired
	}

	if err := s.beginAction(); err != nil {
		return err
	}
	defer s.endAction()

	if err := s.backend.ApproveAnnotation(ctx, s.ImageID, s.User); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

// Reject sends a submitted annotation back with a reason. An empty or
// whitespace reason fails validation before any network call.
func (s *Session) Reject(ctx context.Context, reason string) error {
	s.mu.Lock()
	if !annotation.CanReject(s.status, s.editing) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.mu.Unlock()

	if !annotation.ValidateRejectReason(reason) {
		return ErrEmptyReason
	}

	if err := s.beginAction(); err != nil {
		return err
	}
	defer s.endAction()

	if err := s.backend.RejectAnnotation(ctx, s.ImageID, s.User, reason); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

// EditApproved unlocks an approved record for re-editing. Purely
// local: the server only learns about it on the next Save, which
// supersedes (deprecates) the approved record backend-side.
func (s *Session) EditApproved(confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !annotation.CanEditApproved(s.status, s.editing) {
		return ErrNotAllowed
	}
	if !confirm {
		return ErrConfirmationRequired
	}

	s.editing = true
	s.notice = "Unlocked for editing. Saving will deprecate the approved record."
	return nil
}

// Deprecate manually marks a historical human set as superseded.
func (s *Session) Deprecate(ctx context.Context, setID, reason string, confirm bool) error {
	s.mu.Lock()
	set, ok := s.history.Find(setID)
	if !ok {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	if !annotation.CanDeprecate(set) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.mu.Unlock()

	if !confirm {
		return ErrConfirmationRequired
	}

	if !annotation.ValidateRejectReason(reason) {
		reason = annotation.DefaultDeprecationReason
	}

	if err := s.beginAction(); err != nil {
		return err
	}
	defer s.endAction()

	if err := s.backend.DeprecateAnnotation(ctx, setID, reason); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

// ToggleVisibility flips one historical layer in the comparison grid.
func (s *Session) ToggleVisibility(setID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Toggle(setID)
}

// Close persists the edit buffer as a draft when the session is still
// editable, so unsaved work survives the teardown.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drafts != nil && s.canDraw() && len(s.boxes) > 0 {
		if err := s.drafts.Save(ctx, s.ImageID, s.User, s.boxes); err != nil {
			log.Printf("[WORKSPACE] Failed to persist draft for %s: %v", s.ImageID, err)
		}
	}
}
