package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinlabel/labelstation/internal/aicore"
	"github.com/clinlabel/labelstation/internal/api"
	"github.com/clinlabel/labelstation/internal/database"
	"github.com/clinlabel/labelstation/internal/gallery"
	"github.com/clinlabel/labelstation/internal/overlay"
	"github.com/clinlabel/labelstation/internal/storage"
	"github.com/clinlabel/labelstation/internal/workspace"
)

// fakeImage is one backend image with its annotation history.
type fakeImage struct {
	Info    aicore.ImageInfo
	History []aicore.AnnotationRecord
	AIRef   *aicore.AIReference
}

// fakeAICore is an in-memory stand-in for the ai-core backend. It
// implements the workflow transitions server-side the way the real
// backend does: saving supersedes prior approvals, approve/reject flip
// the newest submission.
type fakeAICore struct {
	mu     sync.Mutex
	images map[string]*fakeImage
	order  []string
	server *httptest.Server
}

func newFakeAICore() *fakeAICore {
	f := &fakeAICore{images: make(map[string]*fakeImage)}

	r := chi.NewRouter()
	r.Get("/result-images", f.listHandler)
	r.Get("/result-images/{id}", f.detailHandler)
	r.Post("/result-images/{id}/human-annotations", f.saveHandler)
	r.Patch("/result-images/{id}/approve", f.approveHandler)
	r.Patch("/result-images/{id}/reject", f.rejectHandler)
	r.Patch("/annotations/{id}/deprecate", f.deprecateHandler)
	r.Get("/images/{id}.png", f.imageHandler)

	f.server = httptest.NewServer(r)
	return f
}

func (f *fakeAICore) Close() { f.server.Close() }

func (f *fakeAICore) addImage(id, fileName string, withAIRef bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img := &fakeImage{
		Info: aicore.ImageInfo{
			ImageID:          id,
			FileName:         fileName,
			OriginalImageURL: f.server.URL + "/images/" + id + ".png",
			UploadedByName:   "Dr. Kim",
			UploadedAt:       "2026-08-01",
		},
	}
	if withAIRef {
		img.AIRef = &aicore.AIReference{
			Model: "yolo-v8",
			Data:  json.RawMessage(`{"detections":[{"bbox":{"x1":5,"y1":5,"x2":20,"y2":20},"class":{"name":"nodule","id":0},"confidence":0.9}]}`),
		}
	}
	f.images[id] = img
	f.order = append(f.order, id)
}

// currentStatus derives the image-level bucket status.
func (img *fakeImage) currentStatus() string {
	for i := len(img.History) - 1; i >= 0; i-- {
		if img.History[i].Status != "DEPRECATED" {
			return img.History[i].Status
		}
	}
	return "UNLABELED"
}

func bucketMatches(status, filter string) bool {
	if filter == "" {
		return true
	}
	return string(gallery.BucketFor(status)) == filter
}

func (f *fakeAICore) listHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	filter := r.URL.Query().Get("status")
	search := strings.ToLower(r.URL.Query().Get("search"))

	var items []aicore.ImageRecord
	for _, id := range f.order {
		img := f.images[id]
		status := img.currentStatus()
		if !bucketMatches(status, filter) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(img.Info.FileName), search) {
			continue
		}
		items = append(items, aicore.ImageRecord{
			ImageID:          img.Info.ImageID,
			FileName:         img.Info.FileName,
			OriginalImageURL: img.Info.OriginalImageURL,
			UploadedByName:   img.Info.UploadedByName,
			UploadedAt:       img.Info.UploadedAt,
			CurrentStatus:    status,
			HasAIReference:   img.AIRef != nil,
		})
	}

	writeBackendJSON(w, aicore.ImageList{
		Items: items,
		Meta:  aicore.ListMeta{TotalPages: 1, TotalItems: len(items)},
	})
}

func (f *fakeAICore) detailHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.images[chi.URLParam(r, "id")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	// The gateway wraps detail responses in a data envelope.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": aicore.ImageDetail{
		ImageInfo:         img.Info,
		AnnotationHistory: img.History,
		AIReference:       img.AIRef,
	}})
}

func (f *fakeAICore) saveHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.images[chi.URLParam(r, "id")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req aicore.SaveAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// A new submission supersedes any prior active record.
	for i := range img.History {
		if img.History[i].Status == "APPROVED" || img.History[i].Status == "SUBMITTED" {
			img.History[i].Status = "DEPRECATED"
			img.History[i].DeprecationReason = "Superseded by a newer submission"
		}
	}

	data, _ := json.Marshal(req.AnnotationData)
	img.History = append(img.History, aicore.AnnotationRecord{
		AnnotationID:   uuid.New().String(),
		LabeledByName:  req.LabeledBy,
		Status:         req.AnnotationStatus,
		CreatedAt:      time.Now(),
		AnnotationData: data,
	})

	w.WriteHeader(http.StatusCreated)
}

func (f *fakeAICore) setStatus(w http.ResponseWriter, r *http.Request, from, to, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.images[chi.URLParam(r, "id")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	for i := len(img.History) - 1; i >= 0; i-- {
		if img.History[i].Status == from {
			img.History[i].Status = to
			img.History[i].RejectionReason = reason
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	http.Error(w, "no annotation in state "+from, http.StatusConflict)
}

func (f *fakeAICore) approveHandler(w http.ResponseWriter, r *http.Request) {
	f.setStatus(w, r, "SUBMITTED", "APPROVED", "")
}

func (f *fakeAICore) rejectHandler(w http.ResponseWriter, r *http.Request) {
	var req aicore.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		http.Error(w, "reason is required", http.StatusBadRequest)
		return
	}
	f.setStatus(w, r, "SUBMITTED", "REJECTED", req.Reason)
}

func (f *fakeAICore) deprecateHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	annotationID := chi.URLParam(r, "id")
	for _, img := range f.images {
		for i := range img.History {
			if img.History[i].AnnotationID == annotationID {
				var req aicore.DeprecateRequest
				json.NewDecoder(r.Body).Decode(&req)
				img.History[i].Status = "DEPRECATED"
				img.History[i].DeprecationReason = req.Reason
				w.WriteHeader(http.StatusOK)
				return
			}
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

// imageHandler serves a flat gray 64x48 PNG for any image ID.
func (f *fakeAICore) imageHandler(w http.ResponseWriter, r *http.Request) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
		}
	}
	w.Header().Set("Content-Type", "image/png")
	png.Encode(w, img)
}

func writeBackendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type TestServer struct {
	Server  *httptest.Server
	Backend *fakeAICore
	App     *api.App
	DB      *database.DB
	TempDir string
}

func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "labelstation_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	backend := newFakeAICore()

	db, err := database.NewDB(filepath.Join(tempDir, "test.db"))
	if err != nil {
		backend.Close()
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create database: %v", err)
	}

	previewStorage, err := storage.NewLocalStorage(filepath.Join(tempDir, "previews"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	client := aicore.NewClient(backend.server.URL)
	drafts := database.NewDraftRepository(db)

	hub := api.NewHub()
	go hub.Run()

	app := &api.App{
		Gallery:     gallery.New(client),
		Sessions:    workspace.NewManager(client, drafts),
		Previews:    workspace.NewPreviewRegistry(previewStorage),
		Fetcher:     overlay.NewFetcher(time.Minute),
		Hub:         hub,
		DefaultUser: "Anonymous",
	}

	server := httptest.NewServer(api.NewRouter(app))

	return &TestServer{
		Server:  server,
		Backend: backend,
		App:     app,
		DB:      db,
		TempDir: tempDir,
	}
}

func (ts *TestServer) Cleanup() {
	ts.Server.Close()
	ts.Backend.Close()
	ts.DB.Close()
	os.RemoveAll(ts.TempDir)
}

func jsonDecode(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func openSession(t *testing.T, ts *TestServer, imageID, user string) workspace.State {
	t.Helper()
	var state workspace.State
	status := doJSON(t, http.MethodPost, ts.Server.URL+"/api/sessions/", map[string]string{
		"image_id": imageID,
		"user":     user,
	}, &state)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 opening session, got %d", status)
	}
	return state
}

func sessionURL(ts *TestServer, sessionID, suffix string) string {
	return fmt.Sprintf("%s/api/sessions/%s%s", ts.Server.URL, sessionID, suffix)
}
