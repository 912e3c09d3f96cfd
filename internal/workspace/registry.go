package workspace

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/clinlabel/labelstation/internal/storage"
)

// PreviewRegistry tracks uploaded preview files per owning session so
// every acquired file is released exactly once: either explicitly or
// by the owner's sweep on session close. Closing one session never
// touches another session's previews. Handles are opaque; the
// underlying filename never leaves the registry.
type PreviewRegistry struct {
	mu     sync.Mutex
	owners map[string]string
	store  storage.Storage
}

func NewPreviewRegistry(store storage.Storage) *PreviewRegistry {
	return &PreviewRegistry{
		owners: make(map[string]string),
		store:  store,
	}
}

// Acquire stores the upload for a session and returns a handle for
// later access.
func (r *PreviewRegistry) Acquire(owner string, src io.Reader, info storage.FileInfo) (string, error) {
	filename, err := r.store.SaveFile(src, info)
	if err != nil {
		return "", fmt.Errorf("acquiring preview: %w", err)
	}

	r.mu.Lock()
	r.owners[filename] = owner
	r.mu.Unlock()
	return filename, nil
}

// Open returns the preview content for a live handle.
func (r *PreviewRegistry) Open(handle string) (io.ReadSeekCloser, error) {
	r.mu.Lock()
	_, ok := r.owners[handle]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown preview handle: %s", handle)
	}
	return r.store.OpenFile(handle)
}

// Release drops one preview and deletes its file. Only the owning
// session may release a handle; unknown, foreign or already-released
// handles are a no-op.
func (r *PreviewRegistry) Release(owner, handle string) {
	r.mu.Lock()
	got, ok := r.owners[handle]
	if ok && got == owner {
		delete(r.owners, handle)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	if err := r.store.DeleteFile(handle); err != nil {
		log.Printf("[WORKSPACE] Failed to delete preview %s: %v", handle, err)
	}
}

// Sweep releases every preview still held by one session. Called on
// that session's close so its abandoned uploads never leak; other
// sessions' previews stay live.
func (r *PreviewRegistry) Sweep(owner string) int {
	r.mu.Lock()
	var handles []string
	for h, got := range r.owners {
		if got == owner {
			handles = append(handles, h)
			delete(r.owners, h)
		}
	}
	r.mu.Unlock()

	for _, h := range handles {
		if err := r.store.DeleteFile(h); err != nil {
			log.Printf("[WORKSPACE] Failed to delete preview %s: %v", h, err)
		}
	}
	return len(handles)
}

func (r *PreviewRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}
