package session

import (
	"sync"
	"time"

	"brandshot-backend/internal/render"
	"brandshot-backend/internal/style"
	"brandshot-backend/internal/upload"
)

// Session is the server-side equivalent of one open editor tab: it owns the
// style store, the currently loaded image and the export pipeline.
type Session struct {
	ID        string
	CreatedAt time.Time

	store    *style.Store
	exporter *render.Exporter

	mu         sync.RWMutex
	image      *upload.Image
	generation uint64
	lastSeen   time.Time
}

func (s *Session) Style() *style.Store { return s.store }

func (s *Session) Exporter() *render.Exporter { return s.exporter }

// Image returns the loaded image, or nil.
func (s *Session) Image() *upload.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

// BeginUpload reserves a generation for an upload that is about to be decoded.
// Only the most recent reservation may install its image.
func (s *Session) BeginUpload() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// SetImage replaces the loaded image wholesale. It reports false, leaving the
// session untouched, when a newer upload or a clear happened after gen was reserved.
func (s *Session) SetImage(gen uint64, img *upload.Image) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.image = img
	return true
}

// ClearImage unloads the image and invalidates pending uploads.
func (s *Session) ClearImage() {
	s.mu.Lock()
	s.generation++
	s.image = nil
	s.mu.Unlock()
	s.exporter.Cancel()
}

// Tree renders the current state with the loaded image.
func (s *Session) Tree() render.Tree {
	return render.Build(s.store.Current().State, s.Image())
}

// ExportScale is the pixel density for exports, higher for Pro sessions.
func (s *Session) ExportScale() float64 {
	return render.ScaleFor(s.store.Current().State.ProEnabled)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.exporter.Cancel()
	s.store.Close()
}
