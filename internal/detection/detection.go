package detection

// Detection is one bounding box in original-image pixel coordinates,
// produced by Normalize from a raw backend payload. Coordinates are
// always finite; x1<x2 and y1<y2 are not guaranteed, renderers clamp.
type Detection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"classId"`
}

// Box is the editable unit held in a workspace edit buffer: top-left
// corner plus size, also in original-image pixel space.
type Box struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	LabelID int     `json:"labelId"`
	Color   string  `json:"color"`
}

// ToDetection converts an edit-buffer box to the canonical form.
func (b Box) ToDetection() Detection {
	cls := ClassByID(b.LabelID)
	return Detection{
		X1:         b.X,
		Y1:         b.Y,
		X2:         b.X + b.W,
		Y2:         b.Y + b.H,
		Label:      cls.Name,
		Confidence: 1.0,
		ClassID:    cls.ID,
	}
}

// ToBox converts a canonical detection back to an editable box.
func (d Detection) ToBox() Box {
	cls := ClassByID(d.ClassID)
	return Box{
		X:       d.X1,
		Y:       d.Y1,
		W:       d.X2 - d.X1,
		H:       d.Y2 - d.Y1,
		LabelID: cls.ID,
		Color:   cls.Color,
	}
}
