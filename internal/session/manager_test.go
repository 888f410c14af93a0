package session_test

import (
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandshot-backend/internal/render"
	"brandshot-backend/internal/session"
	"brandshot-backend/internal/upload"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newManager(ttl time.Duration) (*session.Manager, *clock) {
	c := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := session.NewManager(ttl, render.NewRasterizer(nil), 0).WithClock(c.Now)
	return m, c
}

func testImage(w, h int) *upload.Image {
	return &upload.Image{MimeType: "image/png", Width: w, Height: h, Decoded: imaging.New(w, h, color.White)}
}

func TestManager_CreateAndGet(t *testing.T) {
	m, _ := newManager(time.Hour)

	s := m.Create(false)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.False(t, got.Style().Current().State.ProEnabled)
	assert.Equal(t, render.ScaleFree, got.ExportScale())

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_CreatePro(t *testing.T) {
	m, _ := newManager(time.Hour)

	s := m.Create(true)
	assert.True(t, s.Style().Current().State.ProEnabled)
	assert.Equal(t, render.ScalePro, s.ExportScale())
}

func TestManager_Delete(t *testing.T) {
	m, _ := newManager(time.Hour)
	s := m.Create(false)
	updates, _ := s.Style().Subscribe()

	require.NoError(t, m.Delete(s.ID))
	assert.ErrorIs(t, m.Delete(s.ID), session.ErrNotFound)

	_, open := <-updates
	assert.False(t, open, "subscriptions end with the session")
}

func TestManager_ExpiresIdleSessions(t *testing.T) {
	m, c := newManager(time.Hour)
	idle := m.Create(false)
	active := m.Create(false)

	c.Advance(40 * time.Minute)
	_, err := m.Get(active.ID)
	require.NoError(t, err)

	c.Advance(30 * time.Minute)
	assert.Equal(t, 1, m.Sweep())

	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestManager_GetDropsExpired(t *testing.T) {
	m, c := newManager(time.Minute)
	s := m.Create(false)

	c.Advance(2 * time.Minute)
	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Zero(t, m.Len())
}

func TestManager_RunClosesSessionsOnShutdown(t *testing.T) {
	m, _ := newManager(time.Hour)
	m.Create(false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("janitor did not stop")
	}
	assert.Zero(t, m.Len())
}

func TestSession_LatestUploadWins(t *testing.T) {
	m, _ := newManager(time.Hour)
	s := m.Create(false)

	older := s.BeginUpload()
	newer := s.BeginUpload()

	assert.True(t, s.SetImage(newer, testImage(10, 10)))
	assert.False(t, s.SetImage(older, testImage(20, 20)))
	assert.Equal(t, 10, s.Image().Width)
	assert.True(t, s.Tree().HasImage())
}

func TestSession_ClearImage(t *testing.T) {
	m, _ := newManager(time.Hour)
	s := m.Create(false)

	gen := s.BeginUpload()
	require.True(t, s.SetImage(gen, testImage(10, 10)))

	pending := s.BeginUpload()
	s.ClearImage()

	assert.Nil(t, s.Image())
	assert.False(t, s.SetImage(pending, testImage(10, 10)), "uploads started before a clear are dropped")
	assert.False(t, s.Tree().HasImage())
}
