package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"brandshot-backend/internal/billing"
	"brandshot-backend/internal/config"
	"brandshot-backend/internal/entitlement"
	"brandshot-backend/internal/handlers"
	"brandshot-backend/internal/render"
	"brandshot-backend/internal/session"
)

const (
	jwtSecret     = "test-secret-key-for-jwt-signing-must-be-long-enough"
	webhookSecret = "whsec_handlers_test"
)

type fakeCreator struct {
	params *stripe.CheckoutSessionParams
	err    error
}

func (f *fakeCreator) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_abc", URL: "https://checkout.stripe.com/c/pay/cs_test_abc"}, nil
}

type testEnv struct {
	router   *gin.Engine
	cfg      *config.Config
	store    *entitlement.MemoryStore
	sessions *session.Manager
	creator  *fakeCreator
}

func newEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		StripeSecretKey:     "sk_test",
		StripeWebhookSecret: webhookSecret,
		StripePriceMonthly:  "price_monthly",
		StripePriceLifetime: "price_lifetime",
		SupabaseJWTSecret:   jwtSecret,
		EntitlementStore:    config.StoreMemory,
		MaxUploadBytes:      1 << 20,
		MaxUploadPixels:     4_000_000,
		MaxRenders:          2,
		SessionTTL:          time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	store := entitlement.NewMemoryStore()
	rasterizer := render.Limit(render.NewRasterizer(nil), cfg.MaxRenders)
	sessions := session.NewManager(cfg.SessionTTL, rasterizer, 0)
	creator := &fakeCreator{}

	router := handlers.NewRouter(handlers.Dependencies{
		Config:       cfg,
		Sessions:     sessions,
		Entitlements: store,
		Rasterizer:   rasterizer,
		Checkout:     billing.NewCheckoutService(billing.NewCatalog(cfg.StripePriceMonthly, cfg.StripePriceLifetime), creator),
		Verifier:     billing.NewWebhookVerifier(webhookSecret),
		Processor:    billing.NewPaymentProcessor(store, nil),
	})

	return &testEnv{router: router, cfg: cfg, store: store, sessions: sessions, creator: creator}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return e.do(req)
}

func bearer(t *testing.T, email string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": email,
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 140, B: 220, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartImage(t *testing.T, path string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "shot.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
