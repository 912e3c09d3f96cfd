package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/clinlabel/labelstation/internal/detection"
	"github.com/clinlabel/labelstation/internal/overlay"
)

// OverlayHandler renders the session image with boxes burned in. By
// default it paints the live edit buffer in palette colors; with
// ?layer=<id> it paints one frozen historical set in the uniform
// review red. ?width scales the output, preserving aspect ratio.
func (app *App) OverlayHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var dets []detection.Detection
	classColors := false
	if layerID := r.URL.Query().Get("layer"); layerID != "" {
		layer, found := s.LayerDetections(layerID)
		if !found {
			writeError(w, http.StatusNotFound, "layer not found")
			return
		}
		dets = layer
	} else {
		dets = s.CurrentDetections()
		classColors = true
	}

	img, err := app.Fetcher.Fetch(r.Context(), s.ImageURL())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch source image")
		return
	}

	opts := overlay.Options{ClassColors: classColors}
	if ws := r.URL.Query().Get("width"); ws != "" {
		width, err := strconv.Atoi(ws)
		if err != nil || width <= 0 {
			writeError(w, http.StatusBadRequest, "invalid width")
			return
		}
		natW := img.Bounds().Dx()
		natH := img.Bounds().Dy()
		opts.DisplayWidth = width
		opts.DisplayHeight = width * natH / natW
	}

	canvas := overlay.Render(img, dets, opts)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := imaging.Encode(w, canvas, imaging.PNG); err != nil {
		// Headers are gone already; nothing to do but log.
		log.Printf("[API] Failed to encode overlay for session %s: %v", s.ID, err)
	}
}
