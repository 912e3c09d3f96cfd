package detection

import (
	"encoding/json"
	"math"
	"strconv"
)

// The backend and the upstream model runners disagree on payload shape.
// Normalize accepts the three shapes seen in the wild, tried in order:
//
//  1. a bare array of detection-like objects
//  2. an object with a data.detections array
//  3. an object with a detections array
//
// Anything else yields an empty slice. Elements missing a bbox or with
// any non-finite coordinate are dropped rather than reported; a partly
// corrupt response degrades to fewer boxes instead of an error.
type extractor func(raw any) ([]any, bool)

var extractors = []extractor{
	extractBareArray,
	extractNestedDetections,
	extractDetections,
}

func extractBareArray(raw any) ([]any, bool) {
	arr, ok := raw.([]any)
	return arr, ok
}

func extractNestedDetections(raw any) ([]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	arr, ok := data["detections"].([]any)
	return arr, ok
}

func extractDetections(raw any) ([]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	arr, ok := obj["detections"].([]any)
	return arr, ok
}

// Normalize converts a decoded payload of any supported shape into
// canonical detections. It is a total function: it never errors and
// always returns a (possibly empty) slice.
func Normalize(raw any) []Detection {
	var elems []any
	for _, extract := range extractors {
		if arr, ok := extract(raw); ok {
			elems = arr
			break
		}
	}

	dets := make([]Detection, 0, len(elems))
	for _, e := range elems {
		if d, ok := normalizeElement(e); ok {
			dets = append(dets, d)
		}
	}
	return dets
}

// NormalizeJSON decodes raw JSON and normalizes it. Malformed JSON
// yields an empty slice, matching the drop-don't-throw contract.
func NormalizeJSON(data []byte) []Detection {
	if len(data) == 0 {
		return []Detection{}
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return []Detection{}
	}
	return Normalize(raw)
}

func normalizeElement(e any) (Detection, bool) {
	obj, ok := e.(map[string]any)
	if !ok {
		return Detection{}, false
	}
	bbox, ok := obj["bbox"]
	if !ok || bbox == nil {
		return Detection{}, false
	}

	x1, ok1 := coord(bbox, "x1", 0)
	y1, ok2 := coord(bbox, "y1", 1)
	x2, ok3 := coord(bbox, "x2", 2)
	y2, ok4 := coord(bbox, "y2", 3)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Detection{}, false
	}

	cls, _ := obj["class"].(map[string]any)

	label := "Unknown"
	if name, ok := cls["name"].(string); ok && name != "" {
		label = name
	} else if name, ok := obj["class_name"].(string); ok && name != "" {
		label = name
	}

	confidence := 0.0
	if c, ok := number(obj["confidence"]); ok {
		confidence = c
	} else if c, ok := number(cls["score"]); ok {
		confidence = c
	}

	classID := -1
	if id, ok := number(cls["id"]); ok {
		classID = int(id)
	}

	return Detection{
		X1:         x1,
		Y1:         y1,
		X2:         x2,
		Y2:         y2,
		Label:      label,
		Confidence: confidence,
		ClassID:    classID,
	}, true
}

// coord reads a named bbox field, falling back to the positional form
// when the bbox is an array instead of an object.
func coord(bbox any, key string, idx int) (float64, bool) {
	switch b := bbox.(type) {
	case map[string]any:
		return number(b[key])
	case []any:
		if idx < len(b) {
			return number(b[idx])
		}
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
