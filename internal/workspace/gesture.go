package workspace

import (
	"context"
	"log"
	"math"

	"github.com/clinlabel/labelstation/internal/annotation"
	"github.com/clinlabel/labelstation/internal/detection"
)

type Tool string

const (
	ToolSelect Tool = "SELECT"
	ToolRect   Tool = "RECT"
)

// Drags narrower than this many image-space pixels are discarded on
// pointer-up; they are part of the normal gesture vocabulary, not an
// error.
const minBoxWidth = 5

const (
	zoomStep = 1.25
	minScale = 0.25
	maxScale = 8.0
)

// SetTool switches the active tool. The rectangle tool is refused
// while the workspace is read-only.
func (s *Session) SetTool(tool Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tool == ToolRect && annotation.IsReadOnly(s.status, s.editing) {
		return ErrReadOnly
	}
	s.tool = tool
	return nil
}

// SetClass picks the palette class applied to newly drawn boxes.
// Existing boxes keep their class until deleted.
func (s *Session) SetClass(classID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classID = detection.ClassByID(classID).ID
}

// Zoom operations are ignored mid-drag: changing the transform under
// an active gesture would shear the temporary box.
func (s *Session) ZoomIn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawing {
		return
	}
	s.scale = math.Min(s.scale*zoomStep, maxScale)
}

func (s *Session) ZoomOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawing {
		return
	}
	s.scale = math.Max(s.scale/zoomStep, minScale)
}

func (s *Session) ResetZoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawing {
		return
	}
	s.scale = 1.0
}

// PointerDown starts a drag gesture. Coordinates arrive in client
// space and are divided by the zoom scale immediately: boxes are
// stored in original-image pixels regardless of the viewer transform.
func (s *Session) PointerDown(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tool != ToolRect || !s.canDraw() {
		return
	}

	ix := x / s.scale
	iy := y / s.scale
	s.startX = ix
	s.startY = iy
	s.drawing = true

	cls := detection.ClassByID(s.classID)
	s.temp = &detection.Box{X: ix, Y: iy, W: 0, H: 0, LabelID: cls.ID, Color: cls.Color}
}

// PointerMove updates the temporary box, normalizing negative drags so
// the origin is always the top-left corner.
func (s *Session) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawing || s.temp == nil {
		return
	}

	w := x/s.scale - s.startX
	h := y/s.scale - s.startY

	s.temp.W = math.Abs(w)
	s.temp.H = math.Abs(h)
	s.temp.X = s.startX
	s.temp.Y = s.startY
	if w < 0 {
		s.temp.X = s.startX + w
	}
	if h < 0 {
		s.temp.Y = s.startY + h
	}
}

// PointerUp ends the gesture, committing the temporary box only when
// the drag exceeded the minimum width. Sub-threshold drags vanish
// silently.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drawing && s.temp != nil && s.temp.W > minBoxWidth {
		s.boxes = append(s.boxes, *s.temp)
		s.persistDraft()
	}
	s.drawing = false
	s.temp = nil
}

// DeleteBox removes one box by index; disabled in read-only states.
func (s *Session) DeleteBox(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canDraw() {
		return ErrReadOnly
	}
	if index < 0 || index >= len(s.boxes) {
		return ErrNotAllowed
	}

	s.boxes = append(s.boxes[:index], s.boxes[index+1:]...)
	s.persistDraft()
	return nil
}

// persistDraft mirrors the buffer to the local draft store,
// best-effort. Caller holds s.mu.
func (s *Session) persistDraft() {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.Save(context.Background(), s.ImageID, s.User, s.boxes); err != nil {
		// Draft persistence must never interrupt a gesture.
		log.Printf("[WORKSPACE] Failed to persist draft for %s: %v", s.ImageID, err)
	}
}
