package integration

import (
	"net/http"
	"testing"

	"github.com/clinlabel/labelstation/internal/gallery"
)

func TestGalleryListing(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	ts.Backend.addImage("img-1", "chest-xray.png", true)
	ts.Backend.addImage("img-2", "brain-mri.png", false)

	var page gallery.Page
	status := doJSON(t, http.MethodGet, ts.Server.URL+"/api/gallery", nil, &page)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(page.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(page.Items))
	}
	if page.Items[0].CurrentStatus != "UNLABELED" {
		t.Errorf("Expected UNLABELED, got %s", page.Items[0].CurrentStatus)
	}
	if !page.Items[0].HasAIReference {
		t.Error("Expected AI reference flag on img-1")
	}

	status = doJSON(t, http.MethodGet, ts.Server.URL+"/api/gallery?bucket=done", nil, &page)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(page.Items) != 0 {
		t.Errorf("Expected empty DONE bucket, got %d items", len(page.Items))
	}

	status = doJSON(t, http.MethodGet, ts.Server.URL+"/api/gallery?search=brain", nil, &page)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(page.Items) != 1 || page.Items[0].ImageID != "img-2" {
		t.Errorf("Expected only img-2 for search, got %+v", page.Items)
	}
}

func TestGalleryRejectsUnknownBucket(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Cleanup()

	status := doJSON(t, http.MethodGet, ts.Server.URL+"/api/gallery?bucket=ARCHIVED", nil, nil)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown bucket, got %d", status)
	}
}
