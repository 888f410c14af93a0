package models

type CheckoutRequest struct {
	// PlanType selects the price: "monthly" (subscription) or "lifetime" (one-off payment).
	// A missing plan is reported the same way as an unknown one.
	PlanType string `json:"planType" example:"monthly"`
}

// StyleUpdateRequest carries either a single field edit or a batch that is
// applied atomically.
type StyleUpdateRequest struct {
	Field  string         `json:"field,omitempty" example:"corner_radius"`
	Value  any            `json:"value,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

type ImageDataURIRequest struct {
	DataURI string `json:"dataUri" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
