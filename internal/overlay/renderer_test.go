package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/clinlabel/labelstation/internal/detection"
)

func TestProjectBox_ScaleInvariance(t *testing.T) {
	d := detection.Detection{X1: 10, Y1: 20, X2: 50, Y2: 80}

	at1x := ProjectBox(d, 1, 1)
	at2x := ProjectBox(d, 2, 2)

	if at2x.X != 2*at1x.X || at2x.Y != 2*at1x.Y {
		t.Errorf("doubling scale should double origin: 1x=%+v 2x=%+v", at1x, at2x)
	}
	if at2x.W != 2*at1x.W || at2x.H != 2*at1x.H {
		t.Errorf("doubling scale should double size: 1x=%+v 2x=%+v", at1x, at2x)
	}
}

func TestProjectBox_DegenerateClamp(t *testing.T) {
	d := detection.Detection{X1: 50, Y1: 80, X2: 10, Y2: 20}
	r := ProjectBox(d, 1, 1)
	if r.W != 0 || r.H != 0 {
		t.Errorf("inverted box should clamp to zero size, got w=%v h=%v", r.W, r.H)
	}
}

func TestProjectBox_NonUniformScale(t *testing.T) {
	d := detection.Detection{X1: 10, Y1: 10, X2: 20, Y2: 20}
	r := ProjectBox(d, 0.5, 2)
	if r.X != 5 || r.W != 5 {
		t.Errorf("horizontal scale 0.5 wrong: %+v", r)
	}
	if r.Y != 20 || r.H != 20 {
		t.Errorf("vertical scale 2 wrong: %+v", r)
	}
}

func TestTagOrigin_ClampsAtTop(t *testing.T) {
	_, y := TagOrigin(Rect{X: 5, Y: 4})
	if y != 0 {
		t.Errorf("tag above canvas top should clamp to 0, got %v", y)
	}

	_, y = TagOrigin(Rect{X: 5, Y: 100})
	if y != 84 {
		t.Errorf("expected tag origin 84, got %v", y)
	}
}

func TestLabel(t *testing.T) {
	d := detection.Detection{Label: "nodule", Confidence: 0.87}
	if got := Label(d); got != "nodule 87%" {
		t.Errorf("expected %q, got %q", "nodule 87%", got)
	}
}

func TestRender_PaintsStroke(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	dets := []detection.Detection{
		{X1: 20, Y1: 30, X2: 60, Y2: 70, Label: "nodule", Confidence: 1},
	}

	out := Render(src, dets, Options{})
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("natural-size render should keep dimensions, got %v", out.Bounds())
	}

	// Top edge of the stroked box.
	got := out.NRGBAAt(25, 31)
	want := color.NRGBA{R: 0xff, A: 0xff}
	if got != want {
		t.Errorf("expected stroke pixel %v at box edge, got %v", want, got)
	}

	// Center stays untouched.
	if got := out.NRGBAAt(40, 50); got.R == 0xff && got.A == 0xff && got.G == 0 {
		t.Errorf("box interior should not be filled, got %v", got)
	}
}

func TestRender_DisplayScaling(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	dets := []detection.Detection{
		{X1: 10, Y1: 10, X2: 50, Y2: 50, Label: "nodule", Confidence: 1},
	}

	out := Render(src, dets, Options{DisplayWidth: 200, DisplayHeight: 200})
	if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 200 {
		t.Fatalf("expected 200x200 canvas, got %v", out.Bounds())
	}

	// At 2x, the box top edge lands at y=20 starting from x=20.
	got := out.NRGBAAt(50, 21)
	want := color.NRGBA{R: 0xff, A: 0xff}
	if got != want {
		t.Errorf("expected scaled stroke pixel at (50,21), got %v", got)
	}
}
