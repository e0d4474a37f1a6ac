package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arung-agamani/icerelay/internal/admin"
	"github.com/arung-agamani/icerelay/internal/auth"
	"github.com/arung-agamani/icerelay/internal/relay"
	"github.com/arung-agamani/icerelay/internal/source"
	"github.com/arung-agamani/icerelay/internal/stats"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRelayHandlers(t *testing.T) *RelayHandlers {
	t.Helper()
	sup := relay.NewSupervisor("/dev/null", make(chan struct{}, 1))
	sup.Registry = source.NewRegistry()
	sup.Stats = stats.New()
	return NewRelayHandlers(admin.NewService(sup))
}

func TestHealthReturnsOK(t *testing.T) {
	t.Parallel()

	h := newTestRelayHandlers(t)
	router := gin.New()
	router.GET("/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStatusReturnsSupervisorSnapshot(t *testing.T) {
	t.Parallel()

	h := newTestRelayHandlers(t)
	router := gin.New()
	router.GET("/admin/status", h.Status)

	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body admin.StatusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.StaticRelayCount != 0 {
		t.Fatalf("StaticRelayCount = %d, want 0", body.StaticRelayCount)
	}
}

func TestRedirectFoundsToAKnownSlaveHost(t *testing.T) {
	t.Parallel()

	sup := relay.NewSupervisor("/dev/null", make(chan struct{}, 1))
	sup.Registry = source.NewRegistry()
	sup.Stats = stats.New()
	_ = sup.SlaveHosts.Add("x:1")
	_ = sup.SlaveHosts.Add("y:2")

	h := NewRelayHandlers(admin.NewService(sup))
	router := gin.New()
	router.GET("/admin/redirect/*mount", h.Redirect)

	req := httptest.NewRequest(http.MethodGet, "/admin/redirect/m", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	location := rec.Header().Get("Location")
	if location != "http://x:1/m" && location != "http://y:2/m" {
		t.Fatalf("Location = %q, want http://x:1/m or http://y:2/m", location)
	}
}

func TestRedirectWithNoSlaveHostsReturnsNotFound(t *testing.T) {
	t.Parallel()

	h := newTestRelayHandlers(t)
	router := gin.New()
	router.GET("/admin/redirect/*mount", h.Redirect)

	req := httptest.NewRequest(http.MethodGet, "/admin/redirect/m", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLoginRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	authHandlers := NewAuthHandlers(auth.New(auth.Config{Username: "admin", Password: "secret", JWTSecret: "a-sufficiently-long-test-secret-value"}))
	router := gin.New()
	router.POST("/admin/login", authHandlers.Login)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	authHandlers := NewAuthHandlers(auth.New(auth.Config{Username: "admin", Password: "secret", JWTSecret: "a-sufficiently-long-test-secret-value"}))
	router := gin.New()
	router.POST("/admin/login", authHandlers.Login)

	body := []byte(`{"username":"admin","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginAcceptsGoodCredentials(t *testing.T) {
	t.Parallel()

	authHandlers := NewAuthHandlers(auth.New(auth.Config{Username: "admin", Password: "secret", JWTSecret: "a-sufficiently-long-test-secret-value"}))
	router := gin.New()
	router.POST("/admin/login", authHandlers.Login)

	body := []byte(`{"username":"admin","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["token"] == "" || resp["token"] == nil {
		t.Fatal("expected a non-empty token in the login response")
	}
}
