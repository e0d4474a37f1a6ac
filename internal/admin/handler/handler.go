// Package handler holds the gin route handlers for the admin HTTP API.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arung-agamani/icerelay/internal/admin"
	"github.com/arung-agamani/icerelay/internal/auth"
	"github.com/gin-gonic/gin"
)

// RelayHandlers holds the gin route handlers for relay status and control
// operations.
type RelayHandlers struct {
	svc *admin.Service
}

func NewRelayHandlers(svc *admin.Service) *RelayHandlers {
	return &RelayHandlers{svc: svc}
}

// Health handles GET /health
func (h *RelayHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status handles GET /admin/status
func (h *RelayHandlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}

// Relays handles GET /admin/relays
func (h *RelayHandlers) Relays(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Relays())
}

// Slaves handles GET /admin/slaves
func (h *RelayHandlers) Slaves(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slaves": h.svc.Slaves()})
}

// Redirect handles GET /admin/redirect/*mount, the stand-in for a
// listener-facing server choosing to bounce a client to a known slave host
// instead of serving the mount itself. It responds 302 with a Location
// header when a slave host is known, 404 otherwise.
func (h *RelayHandlers) Redirect(c *gin.Context) {
	mount := c.Param("mount")
	location, ok := h.svc.Redirect(mount)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "no slave host known"})
		return
	}
	c.Redirect(http.StatusFound, location)
}

// Reload handles POST /admin/reload, forcing an immediate full refresh of
// the static relay list.
func (h *RelayHandlers) Reload(c *gin.Context) {
	slog.Info("Admin reload requested", "remote", c.ClientIP())
	h.svc.Reload()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Rescan handles POST /admin/rescan, forcing a light rescan of both relay
// lists.
func (h *RelayHandlers) Rescan(c *gin.Context) {
	slog.Info("Admin rescan requested", "remote", c.ClientIP())
	h.svc.Rescan()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Rebuild handles POST /admin/rebuild, forcing both a full refresh and a
// rescan.
func (h *RelayHandlers) Rebuild(c *gin.Context) {
	slog.Info("Admin rebuild requested", "remote", c.ClientIP())
	h.svc.Rebuild()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AuthHandlers holds the gin route handler for the admin login endpoint.
type AuthHandlers struct {
	a *auth.Auth
}

func NewAuthHandlers(a *auth.Auth) *AuthHandlers {
	return &AuthHandlers{a: a}
}

// Login handles POST /admin/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}
	if len(body.Username) == 0 || len(body.Username) > 256 ||
		len(body.Password) == 0 || len(body.Password) > 256 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid credentials format"})
		return
	}

	token, err := h.a.Authenticate(body.Username, body.Password, c.Request.RemoteAddr)
	if err != nil {
		slog.Warn("Failed admin login attempt", "remote", c.Request.RemoteAddr, "error_type", err.Error())
		if err == auth.ErrRateLimited {
			remaining := h.a.RemainingLockout(c.Request.RemoteAddr)
			c.Header("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status": "error",
				"error":  "too many login attempts, please try again later",
			})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid credentials"})
		return
	}

	slog.Info("Admin operator logged in", "username", body.Username, "remote", c.Request.RemoteAddr)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "token": token, "username": body.Username})
}
