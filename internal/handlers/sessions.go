package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brandshot-backend/internal/entitlement"
	"brandshot-backend/internal/middleware"
	"brandshot-backend/internal/models"
	"brandshot-backend/internal/render"
	"brandshot-backend/internal/session"
	"brandshot-backend/internal/style"
	"brandshot-backend/internal/upload"
)

// SessionsHandler serves the editor: style edits, uploads, previews and exports.
type SessionsHandler struct {
	sessions   *session.Manager
	store      entitlement.Store
	rasterizer render.Rasterizer
	limits     upload.Limits
}

func NewSessionsHandler(sessions *session.Manager, store entitlement.Store, rasterizer render.Rasterizer, limits upload.Limits) *SessionsHandler {
	return &SessionsHandler{
		sessions:   sessions,
		store:      store,
		rasterizer: rasterizer,
		limits:     limits,
	}
}

// Create godoc
// @Summary     Open an editor session
// @Description Starts a session from the default style. Pro features are enabled only when the
// @Description bearer token's email has a recorded entitlement.
// @Tags        sessions
// @Produce     json
// @Param       Authorization header string false "Optional bearer token"
// @Success     201 {object} models.SessionResponse
// @Router      /sessions [post]
func (h *SessionsHandler) Create(c *gin.Context) {
	s := h.sessions.Create(h.isPro(c.Request.Context(), middleware.Email(c)))
	c.JSON(http.StatusCreated, sessionResponse(s))
}

// Get godoc
// @Summary     Get a session
// @Tags        sessions
// @Produce     json
// @Param       id path string true "Session ID"
// @Success     200 {object} models.SessionResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{id} [get]
func (h *SessionsHandler) Get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// Delete godoc
// @Summary     Close a session
// @Tags        sessions
// @Param       id path string true "Session ID"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{id} [delete]
func (h *SessionsHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStyle godoc
// @Summary     Edit style fields
// @Description Overwrites one field ({field, value}) or several at once ({fields: {...}}). Numeric
// @Description values are clamped to the slider ranges. Text overlay fields require Pro.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id path string true "Session ID"
// @Param       request body models.StyleUpdateRequest true "Field edits"
// @Success     200 {object} models.SessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{id}/style [patch]
func (h *SessionsHandler) UpdateStyle(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req models.StyleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	fields := make(map[string]any, len(req.Fields)+1)
	for name, value := range req.Fields {
		fields[name] = value
	}
	if req.Field != "" {
		fields[req.Field] = req.Value
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no style fields given"})
		return
	}

	order := make([]string, 0, len(fields))
	for name := range fields {
		order = append(order, name)
	}
	// "padding" sorts before "padding_x", so the specific field wins
	sort.Strings(order)

	pro := s.Style().Current().State.ProEnabled
	for _, name := range order {
		if style.IsTextField(name) && !pro {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "pro required",
				Message: "the text overlay is a Pro feature",
			})
			return
		}
		value, err := normalizeField(name, fields[name])
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid style value", Message: err.Error()})
			return
		}
		fields[name] = value
	}

	if _, err := s.Style().ApplyAll(fields, order); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid style value", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// UploadImage godoc
// @Summary     Load an image
// @Description Accepts a multipart "image" file or a JSON {dataUri}. Replaces any loaded image.
// @Tags        sessions
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
// @Param       id path string true "Session ID"
// @Param       image formData file false "Image file"
// @Success     200 {object} models.SessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     415 {object} models.ErrorResponse
// @Router      /sessions/{id}/image [post]
func (h *SessionsHandler) UploadImage(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	gen := s.BeginUpload()
	img, err := h.readUpload(c)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, upload.ErrTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, upload.ErrUnsupportedType):
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, models.ErrorResponse{Error: "invalid image", Message: err.Error()})
		return
	}

	if !s.SetImage(gen, img) {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "superseded by a newer upload"})
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

func (h *SessionsHandler) readUpload(c *gin.Context) (*upload.Image, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req models.ImageDataURIRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return upload.ParseDataURI(req.DataURI, h.limits)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("missing image file: %w", err)
	}
	if fh.Size > h.limits.Bytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", upload.ErrTooLarge, h.limits.Bytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return upload.Decode(c.Request.Context(), f, h.limits)
}

// DeleteImage godoc
// @Summary     Unload the image
// @Tags        sessions
// @Produce     json
// @Param       id path string true "Session ID"
// @Success     200 {object} models.SessionResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{id}/image [delete]
func (h *SessionsHandler) DeleteImage(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.ClearImage()
	c.JSON(http.StatusOK, sessionResponse(s))
}

// Preview godoc
// @Summary     Visual tree for the current state
// @Tags        sessions
// @Produce     json
// @Param       id path string true "Session ID"
// @Success     200 {object} render.Tree
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{id}/preview [get]
func (h *SessionsHandler) Preview(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Tree())
}

// PreviewPNG godoc
// @Summary     Rendered preview at 1x
// @Tags        sessions
// @Produce     png
// @Param       id path string true "Session ID"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /sessions/{id}/preview.png [get]
func (h *SessionsHandler) PreviewPNG(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	img, err := h.rasterizer.Rasterize(c.Request.Context(), s.Tree(), 1)
	if err != nil {
		logrus.WithError(err).WithField("session_id", s.ID).Error("preview render failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "preview render failed"})
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "preview render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// Export godoc
// @Summary     Export the composition as PNG
// @Description Renders the current state at 2x (3x for Pro) and returns it as a download named
// @Description brandshot-<epoch-ms>.png. A newer export request supersedes one still running.
// @Tags        sessions
// @Produce     png
// @Param       id path string true "Session ID"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /sessions/{id}/export [post]
func (h *SessionsHandler) Export(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	task := s.Exporter().Start(ctx, s.Tree(), s.ExportScale())
	res, err := task.Wait(ctx)
	switch {
	case err == nil:
	case errors.Is(err, render.ErrNoImage):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "no image loaded", Message: "upload an image before exporting"})
		return
	case errors.Is(err, render.ErrSuperseded), errors.Is(err, render.ErrCanceled):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "export canceled", Message: err.Error()})
		return
	case ctx.Err() != nil:
		// client went away
		task.Cancel()
		return
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "export failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	c.Header("X-Export-Scale", fmt.Sprintf("%g", res.Scale))
	c.Data(http.StatusOK, "image/png", res.PNG)
}

// CancelExport godoc
// @Summary     Cancel a running export
// @Tags        sessions
// @Produce     json
// @Param       id path string true "Session ID"
// @Success     200 {object} models.CancelExportResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{id}/export [delete]
func (h *SessionsHandler) CancelExport(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.CancelExportResponse{Canceled: s.Exporter().Cancel()})
}

// Events godoc
// @Summary     Stream style updates
// @Description Server-sent events: one "style" event with the current snapshot, then one per update.
// @Tags        sessions
// @Produce     text/event-stream
// @Param       id path string true "Session ID"
// @Success     200
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{id}/events [get]
func (h *SessionsHandler) Events(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	updates, cancel := s.Style().Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("style", s.Style().Current())
	c.Writer.Flush()

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case snap, open := <-updates:
			if !open {
				c.SSEvent("closed", gin.H{"id": s.ID})
				c.Writer.Flush()
				return
			}
			c.SSEvent("style", snap)
			c.Writer.Flush()
		}
	}
}

func (h *SessionsHandler) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		return nil, false
	}
	return s, true
}

func (h *SessionsHandler) isPro(ctx context.Context, email string) bool {
	if email == "" || h.store == nil {
		return false
	}
	_, err := h.store.Get(ctx, email)
	if err != nil && !errors.Is(err, entitlement.ErrNotFound) {
		logrus.WithError(err).Warn("entitlement lookup failed, starting session as free")
	}
	return err == nil
}

// normalizeField validates paints and clamps numbers before the value reaches the store.
func normalizeField(name string, value any) (any, error) {
	switch name {
	case style.FieldBackground:
		if str, ok := value.(string); ok {
			if _, err := render.ParsePaint(str); err != nil {
				return nil, err
			}
		}
	case style.FieldTextColor:
		if str, ok := value.(string); ok {
			if _, err := render.ParseColor(str); err != nil {
				return nil, err
			}
		}
	case style.FieldText:
		m, ok := value.(map[string]any)
		if !ok {
			return value, nil
		}
		out := make(map[string]any, len(m))
		for key, v := range m {
			nv, err := normalizeField(style.FieldText+"."+key, v)
			if err != nil {
				return nil, err
			}
			out[key] = nv
		}
		return out, nil
	}
	return style.Clamp(name, value), nil
}

func sessionResponse(s *session.Session) models.SessionResponse {
	snap := s.Style().Current()
	img := s.Image()

	resp := models.SessionResponse{
		ID:          s.ID,
		Version:     snap.Version,
		State:       snap.State,
		Preview:     render.Build(snap.State, img),
		ExportScale: render.ScaleFor(snap.State.ProEnabled),
		CreatedAt:   s.CreatedAt,
	}
	if img != nil {
		resp.Image = &models.ImageInfo{
			MimeType: img.MimeType,
			Width:    img.Width,
			Height:   img.Height,
			Size:     img.Size,
		}
	}
	return resp
}
