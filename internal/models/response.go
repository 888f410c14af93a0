package models

import (
	"time"

	"brandshot-backend/internal/render"
	"brandshot-backend/internal/style"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type ImageInfo struct {
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int    `json:"size"`
}

type SessionResponse struct {
	ID          string      `json:"id"`
	Version     uint64      `json:"version"`
	State       style.State `json:"state"`
	Preview     render.Tree `json:"preview"`
	Image       *ImageInfo  `json:"image,omitempty"`
	ExportScale float64     `json:"export_scale"`
	CreatedAt   time.Time   `json:"created_at"`
}

type CancelExportResponse struct {
	Canceled bool `json:"canceled"`
}

type PresetsResponse struct {
	Backgrounds  []style.BackgroundOption `json:"backgrounds"`
	Paddings     []style.IntOption        `json:"paddings"`
	Roundings    []style.IntOption        `json:"roundings"`
	Shadows      []style.FloatOption      `json:"shadows"`
	FontFamilies []style.FontFamily       `json:"font_families"`
	Ranges       map[string]style.Range   `json:"ranges"`
	Defaults     style.State              `json:"defaults"`
}

type EntitlementResponse struct {
	Email     string     `json:"email"`
	Pro       bool       `json:"pro"`
	Plan      string     `json:"plan,omitempty"`
	GrantedAt *time.Time `json:"grantedAt,omitempty"`
}
