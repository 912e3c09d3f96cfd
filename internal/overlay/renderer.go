package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/clinlabel/labelstation/internal/detection"
)

const (
	strokeWidth = 3
	tagHeight   = 16
	tagPadding  = 8
)

// Options controls one render pass. Zero display dimensions mean the
// image's natural size (scale factors of exactly 1).
type Options struct {
	DisplayWidth  int
	DisplayHeight int
	// ClassColors strokes each box in its palette color instead of the
	// uniform red used by the read-only result viewers.
	ClassColors bool
}

// Rect is a projected box in display-space pixels.
type Rect struct {
	X, Y, W, H float64
}

// ProjectBox maps a detection from original-image space to display
// space. Degenerate boxes (x2<x1 or y2<y1) clamp to zero size rather
// than rendering inverted.
func ProjectBox(d detection.Detection, sx, sy float64) Rect {
	w := (d.X2 - d.X1) * sx
	h := (d.Y2 - d.Y1) * sy
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: d.X1 * sx, Y: d.Y1 * sy, W: w, H: h}
}

// TagOrigin places the label tag just above a projected box, clamped
// so it never leaves the canvas at the top.
func TagOrigin(r Rect) (float64, float64) {
	return r.X, math.Max(0, r.Y-tagHeight)
}

// Label formats the tag text for a detection.
func Label(d detection.Detection) string {
	return fmt.Sprintf("%s %.0f%%", d.Label, d.Confidence*100)
}

// Render paints the image scaled to the display size with all
// detections stroked on top. Every call is a full repaint; no state
// carries over between renders.
func Render(img image.Image, dets []detection.Detection, opts Options) *image.NRGBA {
	natW := img.Bounds().Dx()
	natH := img.Bounds().Dy()

	dispW := opts.DisplayWidth
	dispH := opts.DisplayHeight
	if dispW <= 0 {
		dispW = natW
	}
	if dispH <= 0 {
		dispH = natH
	}

	canvas := imaging.Resize(img, dispW, dispH, imaging.Lanczos)

	sx := float64(dispW) / float64(natW)
	sy := float64(dispH) / float64(natH)

	for _, d := range dets {
		c := strokeColor(d, opts)
		r := ProjectBox(d, sx, sy)
		strokeRect(canvas, r, c)
		drawTag(canvas, r, Label(d), c)
	}

	return canvas
}

func strokeColor(d detection.Detection, opts Options) color.NRGBA {
	if opts.ClassColors {
		return parseHexColor(detection.ClassByID(d.ClassID).Color)
	}
	return color.NRGBA{R: 0xff, A: 0xff}
}

func strokeRect(canvas *image.NRGBA, r Rect, c color.NRGBA) {
	x0, y0 := int(r.X), int(r.Y)
	x1, y1 := int(r.X+r.W), int(r.Y+r.H)

	fillRect(canvas, x0, y0, x1, y0+strokeWidth, c)
	fillRect(canvas, x0, y1-strokeWidth, x1, y1, c)
	fillRect(canvas, x0, y0, x0+strokeWidth, y1, c)
	fillRect(canvas, x1-strokeWidth, y0, x1, y1, c)
}

func fillRect(canvas *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	b := canvas.Bounds()
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x1 > b.Max.X {
		x1 = b.Max.X
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			canvas.SetNRGBA(x, y, c)
		}
	}
}

func drawTag(canvas *image.NRGBA, r Rect, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	tw := font.MeasureString(face, text).Ceil()

	tx, ty := TagOrigin(r)
	x0, y0 := int(tx), int(ty)
	fillRect(canvas, x0, y0, x0+tw+tagPadding, y0+tagHeight, c)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x0 + tagPadding/2),
			Y: fixed.I(y0 + tagHeight - 4),
		},
	}
	drawer.DrawString(text)
}

func parseHexColor(s string) color.NRGBA {
	var r, g, b uint8
	if len(s) == 7 && s[0] == '#' {
		if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err == nil {
			return color.NRGBA{R: r, G: g, B: b, A: 0xff}
		}
	}
	return color.NRGBA{R: 0xff, A: 0xff}
}
