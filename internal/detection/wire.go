package detection

// Wire types mirror the annotation_data format the ai-core backend
// persists. They are deliberately distinct from Detection: the
// normalizer consumes raw payloads, these round-trip the save path.

type WireBBox struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Area   float64 `json:"area"`
}

type WireClass struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type WireDetection struct {
	BBox       WireBBox  `json:"bbox"`
	Class      WireClass `json:"class"`
	Confidence float64   `json:"confidence"`
}

// ToWire formats an edit-buffer box for persistence, re-deriving the
// redundant width/height/area fields from the corner coordinates.
func (b Box) ToWire() WireDetection {
	cls := ClassByID(b.LabelID)
	return WireDetection{
		BBox: WireBBox{
			X1:     b.X,
			Y1:     b.Y,
			Width:  b.W,
			Height: b.H,
			X2:     b.X + b.W,
			Y2:     b.Y + b.H,
			Area:   b.W * b.H,
		},
		Class:      WireClass{ID: cls.ID, Name: cls.Name},
		Confidence: 1.0,
	}
}

// BoxesToWire formats a whole edit buffer for a save call.
func BoxesToWire(boxes []Box) []WireDetection {
	wire := make([]WireDetection, 0, len(boxes))
	for _, b := range boxes {
		wire = append(wire, b.ToWire())
	}
	return wire
}

// FromWire converts one persisted detection back to an editable box.
// Older records carry only corner coordinates, so width/height fall
// back to the x2/y2 derivation when absent.
func FromWire(w WireDetection) Box {
	cls := ClassByID(w.Class.ID)
	width := w.BBox.Width
	if width == 0 && w.BBox.X2 > w.BBox.X1 {
		width = w.BBox.X2 - w.BBox.X1
	}
	height := w.BBox.Height
	if height == 0 && w.BBox.Y2 > w.BBox.Y1 {
		height = w.BBox.Y2 - w.BBox.Y1
	}
	return Box{
		X:       w.BBox.X1,
		Y:       w.BBox.Y1,
		W:       width,
		H:       height,
		LabelID: cls.ID,
		Color:   cls.Color,
	}
}

// BoxesFromWire converts a persisted annotation set into an edit buffer.
func BoxesFromWire(wire []WireDetection) []Box {
	boxes := make([]Box, 0, len(wire))
	for _, w := range wire {
		boxes = append(boxes, FromWire(w))
	}
	return boxes
}
