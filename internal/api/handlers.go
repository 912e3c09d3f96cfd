package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinlabel/labelstation/internal/aicore"
	"github.com/clinlabel/labelstation/internal/gallery"
	"github.com/clinlabel/labelstation/internal/overlay"
	"github.com/clinlabel/labelstation/internal/storage"
	"github.com/clinlabel/labelstation/internal/workspace"
)

const maxPreviewSize = 32 << 20

type App struct {
	Gallery     *gallery.Gallery
	Sessions    *workspace.Manager
	Previews    *workspace.PreviewRegistry
	Fetcher     *overlay.Fetcher
	Hub         *Hub
	DefaultUser string
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeWorkspaceError maps session errors onto HTTP statuses. Backend
// failures surface as 502 so clients can tell them from local refusals.
func writeWorkspaceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workspace.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workspace.ErrReadOnly), errors.Is(err, workspace.ErrNotAllowed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, workspace.ErrConfirmationRequired), errors.Is(err, workspace.ErrEmptyReason):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		var apiErr *aicore.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (app *App) session(w http.ResponseWriter, r *http.Request) (*workspace.Session, bool) {
	s, ok := app.Sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return s, ok
}

func (app *App) GalleryHandler(w http.ResponseWriter, r *http.Request) {
	bucket, err := gallery.ParseBucket(r.URL.Query().Get("bucket"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	result, err := app.Gallery.List(r.Context(), bucket, page, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (app *App) OpenSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageID string `json:"image_id"`
		User    string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageID == "" {
		writeError(w, http.StatusBadRequest, "image_id is required")
		return
	}
	if req.User == "" {
		req.User = app.DefaultUser
	}

	s, err := app.Sessions.Open(r.Context(), req.ImageID, req.User)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (app *App) SessionStateHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !app.Sessions.Close(r.Context(), sessionID) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	app.Previews.Sweep(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) SetToolHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Tool workspace.Tool `json:"tool"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Tool != workspace.ToolSelect && req.Tool != workspace.ToolRect {
		writeError(w, http.StatusBadRequest, "unknown tool")
		return
	}

	if err := s.SetTool(req.Tool); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) SetClassHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var req struct {
		ClassID int `json:"class_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.SetClass(req.ClassID)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) DeleteBoxHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}

	if err := s.DeleteBox(index); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) ZoomHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	switch req.Direction {
	case "in":
		s.ZoomIn()
	case "out":
		s.ZoomOut()
	case "reset":
		s.ResetZoom()
	default:
		writeError(w, http.StatusBadRequest, "direction must be in, out or reset")
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) ToggleLayerHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	s.ToggleVisibility(chi.URLParam(r, "layerID"))
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) SaveHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	if err := s.Save(r.Context()); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	app.notifyGalleryChanged()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := s.Approve(r.Context(), req.Confirm); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	app.notifyGalleryChanged()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) RejectHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := s.Reject(r.Context(), req.Reason); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	app.notifyGalleryChanged()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) EditApprovedHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := s.EditApproved(req.Confirm); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) DeprecateHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason  string `json:"reason"`
		Confirm bool   `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := s.Deprecate(r.Context(), chi.URLParam(r, "layerID"), req.Reason, req.Confirm); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	app.notifyGalleryChanged()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (app *App) UploadPreviewHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPreviewSize)

	if err := r.ParseMultipartForm(maxPreviewSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()

	handle, err := app.Previews.Acquire(s.ID, file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store preview")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"handle": handle})
}

func (app *App) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.session(w, r); !ok {
		return
	}
	handle := chi.URLParam(r, "handle")
	f, err := app.Previews.Open(handle)
	if err != nil {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	defer f.Close()

	http.ServeContent(w, r, handle, time.Time{}, f)
}

func (app *App) ReleasePreviewHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.session(w, r)
	if !ok {
		return
	}
	app.Previews.Release(s.ID, chi.URLParam(r, "handle"))
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) notifyGalleryChanged() {
	if app.Hub != nil {
		app.Hub.Broadcast([]byte(`{"event":"gallery-refresh"}`))
	}
}
