package detection

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNormalize_AcceptedShapes(t *testing.T) {
	det := map[string]any{
		"bbox":       map[string]any{"x1": 10.0, "y1": 20.0, "x2": 30.0, "y2": 40.0},
		"class":      map[string]any{"id": 2.0, "name": "Brain tumor"},
		"confidence": 0.9,
	}

	tests := []struct {
		name string
		raw  any
		want int
	}{
		{"bare array", []any{det}, 1},
		{"nested data.detections", map[string]any{"data": map[string]any{"detections": []any{det}}}, 1},
		{"flat detections", map[string]any{"detections": []any{det}}, 1},
		{"unrelated object", map[string]any{"items": []any{det}}, 0},
	}

	for _, tt := range tests {
		got := Normalize(tt.raw)
		if len(got) != tt.want {
			t.Errorf("%s: expected %d detections, got %d", tt.name, tt.want, len(got))
		}
	}
}

func TestNormalize_TotalFunction(t *testing.T) {
	inputs := []any{
		nil,
		"not a payload",
		42.0,
		true,
		[]any{},
		[]any{"garbage", 7.0, nil},
		map[string]any{},
		map[string]any{"data": "wrong type"},
		map[string]any{"detections": "wrong type"},
	}

	for i, raw := range inputs {
		got := Normalize(raw)
		if got == nil {
			t.Errorf("input %d: Normalize returned nil, expected empty slice", i)
		}
		if len(got) != 0 {
			t.Errorf("input %d: expected no detections, got %d", i, len(got))
		}
	}
}

func TestNormalize_DropsNonFinite(t *testing.T) {
	good := map[string]any{
		"bbox": map[string]any{"x1": 1.0, "y1": 2.0, "x2": 3.0, "y2": 4.0},
	}
	bad := map[string]any{
		"bbox": map[string]any{"x1": math.NaN(), "y1": 2.0, "x2": 3.0, "y2": 4.0},
	}
	missing := map[string]any{
		"bbox": map[string]any{"x1": 1.0, "y1": 2.0, "x2": 3.0},
	}
	noBBox := map[string]any{
		"x1": 1.0, "y1": 2.0, "x2": 3.0, "y2": 4.0,
	}

	got := Normalize([]any{good, bad, missing, noBBox})
	if len(got) != 1 {
		t.Fatalf("expected 1 surviving detection, got %d", len(got))
	}
	if got[0].X1 != 1.0 || got[0].Y2 != 4.0 {
		t.Errorf("surviving detection has wrong coordinates: %+v", got[0])
	}
}

func TestNormalize_PositionalBBox(t *testing.T) {
	got := Normalize([]any{
		map[string]any{"bbox": []any{5.0, 6.0, 7.0, 8.0}},
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(got))
	}
	d := got[0]
	if d.X1 != 5 || d.Y1 != 6 || d.X2 != 7 || d.Y2 != 8 {
		t.Errorf("positional bbox mapped wrong: %+v", d)
	}
}

func TestNormalize_FallbackChains(t *testing.T) {
	tests := []struct {
		name     string
		det      map[string]any
		label    string
		conf     float64
		classID  int
	}{
		{
			name: "class.name wins",
			det: map[string]any{
				"bbox":       map[string]any{"x1": 0.0, "y1": 0.0, "x2": 1.0, "y2": 1.0},
				"class":      map[string]any{"id": 3.0, "name": "Glioma", "score": 0.5},
				"class_name": "ignored",
				"confidence": 0.8,
			},
			label: "Glioma", conf: 0.8, classID: 3,
		},
		{
			name: "class_name fallback",
			det: map[string]any{
				"bbox":       map[string]any{"x1": 0.0, "y1": 0.0, "x2": 1.0, "y2": 1.0},
				"class_name": "nodule",
			},
			label: "nodule", conf: 0, classID: -1,
		},
		{
			name: "unknown label, score fallback",
			det: map[string]any{
				"bbox":  map[string]any{"x1": 0.0, "y1": 0.0, "x2": 1.0, "y2": 1.0},
				"class": map[string]any{"score": 0.42},
			},
			label: "Unknown", conf: 0.42, classID: -1,
		},
	}

	for _, tt := range tests {
		got := Normalize([]any{tt.det})
		if len(got) != 1 {
			t.Fatalf("%s: expected 1 detection, got %d", tt.name, len(got))
		}
		d := got[0]
		if d.Label != tt.label {
			t.Errorf("%s: expected label %q, got %q", tt.name, tt.label, d.Label)
		}
		if d.Confidence != tt.conf {
			t.Errorf("%s: expected confidence %v, got %v", tt.name, tt.conf, d.Confidence)
		}
		if d.ClassID != tt.classID {
			t.Errorf("%s: expected classId %d, got %d", tt.name, tt.classID, d.ClassID)
		}
	}
}

func TestNormalizeJSON(t *testing.T) {
	payload := `{"data":{"detections":[{"bbox":{"x1":"10","y1":"20","x2":"30","y2":"40"},"class":{"id":1,"name":"liver tumor"},"confidence":0.7}]}}`
	got := NormalizeJSON([]byte(payload))
	if len(got) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(got))
	}
	if got[0].X1 != 10 || got[0].ClassID != 1 {
		t.Errorf("unexpected detection: %+v", got[0])
	}

	if got := NormalizeJSON([]byte("{broken")); len(got) != 0 {
		t.Errorf("malformed JSON should normalize to empty, got %d", len(got))
	}
	if got := NormalizeJSON(nil); got == nil {
		t.Error("nil input should normalize to empty slice, got nil")
	}
}

func TestNormalize_WireRoundTrip(t *testing.T) {
	box := Box{X: 10, Y: 20, W: 30, H: 40, LabelID: 2}
	wire := BoxesToWire([]Box{box})

	data, err := json.Marshal(wire)
	if err != nil {
		t.Fatalf("failed to marshal wire detections: %v", err)
	}

	got := NormalizeJSON(data)
	if len(got) != 1 {
		t.Fatalf("expected 1 detection after round trip, got %d", len(got))
	}
	d := got[0]
	if d.X1 != 10 || d.Y1 != 20 || d.X2 != 40 || d.Y2 != 60 {
		t.Errorf("round trip corners wrong: %+v", d)
	}
	if d.ClassID != 2 {
		t.Errorf("expected classId 2, got %d", d.ClassID)
	}
}
