package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/marketplace-core/api/controllers"
	"github.com/angelmondragon/marketplace-core/internal/auth"
	"github.com/angelmondragon/marketplace-core/internal/cart"
	"github.com/angelmondragon/marketplace-core/internal/catalog"
	"github.com/angelmondragon/marketplace-core/internal/checkout"
	"github.com/angelmondragon/marketplace-core/internal/payment"
	"github.com/angelmondragon/marketplace-core/internal/theme"
	"github.com/angelmondragon/marketplace-core/internal/users"
	"github.com/angelmondragon/marketplace-core/pkg/auth/session"
	"github.com/angelmondragon/marketplace-core/pkg/config"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
	"github.com/angelmondragon/marketplace-core/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func newTestRouter(t *testing.T, readiness map[string]controllers.Pinger) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "marketplace", ExpirationMinutes: 30, SessionTTLMinutes: 60},
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	reg := prometheus.NewRegistry()

	dir, err := users.NewStaticDirectory(users.DefaultSeeds(), config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	sessions, err := session.NewMemoryManager(cfg.JWT)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	carts, err := cart.NewService(cart.ServiceParams{
		Repository: cart.NewMemoryRepository(),
		Metrics:    metrics.NewCartMetrics(reg),
		Logger:     logg,
	})
	if err != nil {
		t.Fatalf("carts: %v", err)
	}
	authSvc, err := auth.NewService(auth.ServiceParams{Directory: dir, SessionManager: sessions, Carts: carts, JWTConfig: cfg.JWT, Logger: logg})
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	products, err := catalog.NewStaticCatalog(catalog.MockProducts())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	provider, err := payment.NewFakeProvider("100.00")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Carts:    carts,
		Payments: provider,
		Metrics:  metrics.NewCheckoutMetrics(reg),
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	themeSvc, err := theme.NewService(theme.NewMemoryStore(), logg)
	if err != nil {
		t.Fatalf("theme: %v", err)
	}

	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		Sessions:    sessions,
		Auth:        authSvc,
		Catalog:     products,
		Cart:        carts,
		Checkout:    checkoutSvc,
		Theme:       themeSvc,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Readiness:   readiness,
	})
}

func call(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	resp := call(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200 got %d: %s", email, resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if envelope.Data.AccessToken == "" {
		t.Fatal("expected access token")
	}
	return envelope.Data.AccessToken
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t, map[string]controllers.Pinger{"redis": stubPinger{}})
	if resp := call(t, h, http.MethodGet, "/health/live", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodGet, "/health/ready", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}

	down := newTestRouter(t, map[string]controllers.Pinger{"db": stubPinger{err: errors.New("refused")}})
	if resp := call(t, down, http.MethodGet, "/health/ready", "", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready with failing dependency: expected 503 got %d", resp.Code)
	}
}

func TestCustomerCartAndCheckoutFlow(t *testing.T) {
	h := newTestRouter(t, nil)
	token := login(t, h, "customer@market.test", "customer123")

	resp := call(t, h, http.MethodPost, "/api/v1/cart/items", token, `{"productId":"prod-jollof-rice","quantity":2}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("add item: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = call(t, h, http.MethodPost, "/api/v1/checkout", token, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var receipt struct {
		Data controllers.CheckoutResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.Data.Total != "20.00" || receipt.Data.Currency != "USD" {
		t.Fatalf("unexpected receipt %+v", receipt.Data)
	}

	resp = call(t, h, http.MethodGet, "/api/v1/cart", token, "")
	if !strings.Contains(resp.Body.String(), `"count":0`) {
		t.Fatalf("expected empty cart after checkout, got %s", resp.Body.String())
	}

	resp = call(t, h, http.MethodPost, "/api/v1/checkout", token, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("empty checkout: expected 400 got %d", resp.Code)
	}

	metricsResp := call(t, h, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(metricsResp.Body.String(), "cart_mutations_total") ||
		!strings.Contains(metricsResp.Body.String(), "checkout_outcomes_total") ||
		!strings.Contains(metricsResp.Body.String(), `route="/api/v1/checkout"`) {
		t.Fatalf("expected cart and checkout metrics, got %s", metricsResp.Body.String())
	}
}

func TestRoleGatedRoutes(t *testing.T) {
	h := newTestRouter(t, nil)
	vendor := login(t, h, "vendor@market.test", "vendor123")
	rider := login(t, h, "rider@market.test", "rider123")
	admin := login(t, h, "admin@market.test", "admin123")

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		want   int
	}{
		{name: "anonymous cart", method: http.MethodGet, path: "/api/v1/cart", want: http.StatusUnauthorized},
		{name: "vendor cart", token: vendor, method: http.MethodGet, path: "/api/v1/cart", want: http.StatusForbidden},
		{name: "vendor ping", token: vendor, method: http.MethodGet, path: "/api/v1/vendor/ping", want: http.StatusOK},
		{name: "vendor admin ping", token: vendor, method: http.MethodGet, path: "/api/v1/admin/ping", want: http.StatusForbidden},
		{name: "rider ping", token: rider, method: http.MethodGet, path: "/api/v1/rider/ping", want: http.StatusOK},
		{name: "rider vendor ping", token: rider, method: http.MethodGet, path: "/api/v1/vendor/ping", want: http.StatusForbidden},
		{name: "admin vendor ping", token: admin, method: http.MethodGet, path: "/api/v1/vendor/ping", want: http.StatusOK},
		{name: "admin ping", token: admin, method: http.MethodGet, path: "/api/v1/admin/ping", want: http.StatusOK},
		{name: "rider theme", token: rider, method: http.MethodGet, path: "/api/v1/theme", want: http.StatusOK},
		{name: "public catalog", method: http.MethodGet, path: "/api/v1/catalog/products", want: http.StatusOK},
		{name: "catalog miss", method: http.MethodGet, path: "/api/v1/catalog/products/nope", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, h, tt.method, tt.path, tt.token, "")
			if resp.Code != tt.want {
				t.Fatalf("expected %d got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestThemeToggleAndLogout(t *testing.T) {
	h := newTestRouter(t, nil)
	token := login(t, h, "rider@market.test", "rider123")

	resp := call(t, h, http.MethodPost, "/api/v1/theme/toggle", token, "")
	if !strings.Contains(resp.Body.String(), `"mode":"dark"`) {
		t.Fatalf("expected dark after first toggle, got %s", resp.Body.String())
	}
	resp = call(t, h, http.MethodPut, "/api/v1/theme", token, `{"mode":"light"}`)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"mode":"light"`) {
		t.Fatalf("expected light, got %d %s", resp.Code, resp.Body.String())
	}

	if resp := call(t, h, http.MethodGet, "/api/v1/auth/me", token, ""); resp.Code != http.StatusOK {
		t.Fatalf("me: expected 200 got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodPost, "/api/v1/auth/logout", token, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204 got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodGet, "/api/v1/auth/me", token, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401 got %d", resp.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newTestRouter(t, nil)
	resp := call(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"admin@market.test","password":"nope"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
