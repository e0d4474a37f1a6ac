package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/arung-agamani/icerelay/internal/admin/handler"
	"github.com/arung-agamani/icerelay/internal/auth"
	"github.com/arung-agamani/icerelay/internal/relay"
	"github.com/arung-agamani/icerelay/internal/stats"
	"github.com/gin-gonic/gin"
)

// Server is the admin HTTP API: supervisor status, read-only relay/slave
// views, control operations, a live event feed, and operator login.
type Server struct {
	bind        string
	metricsBind string
	httpServer  *http.Server
	metricsSrv  *http.Server
	hub         *EventHub
}

// NewServer wires the gin engine: security headers on every route, JWT auth
// on every mutating route, and the websocket event feed.
func NewServer(bind, metricsBind string, sup *relay.Supervisor, authInstance *auth.Auth, st *stats.Stats) *Server {
	hub := NewEventHub()
	sup.OnEvent = hub.Emit

	svc := NewService(sup)
	relayHandlers := handler.NewRelayHandlers(svc)
	authHandlers := handler.NewAuthHandlers(authInstance)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	router.GET("/health", relayHandlers.Health)
	router.POST("/admin/login", authHandlers.Login)

	router.GET("/admin/status", relayHandlers.Status)
	router.GET("/admin/relays", relayHandlers.Relays)
	router.GET("/admin/slaves", relayHandlers.Slaves)
	router.GET("/admin/redirect/*mount", relayHandlers.Redirect)

	protected := router.Group("/admin")
	protected.Use(AuthRequired(authInstance, auth.ScopeRelayControl))
	{
		protected.POST("/reload", relayHandlers.Reload)
		protected.POST("/rescan", relayHandlers.Rescan)
		protected.POST("/rebuild", relayHandlers.Rebuild)
		protected.GET("/events", func(c *gin.Context) { hub.ServeWS(c.Writer, c.Request) })
	}

	return &Server{
		bind:        bind,
		metricsBind: metricsBind,
		hub:         hub,
		httpServer: &http.Server{
			Addr:           bind,
			Handler:        router,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   0,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		metricsSrv: &http.Server{
			Addr:    metricsBind,
			Handler: st.Handler(),
		},
	}
}

// Start runs the admin HTTP API and the metrics endpoint until ctx is
// cancelled, shutting both down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()
	defer s.hub.Stop()

	errChan := make(chan error, 2)

	go func() {
		slog.Info("Admin HTTP API starting", "addr", s.bind)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	go func() {
		slog.Info("Metrics endpoint starting", "addr", s.metricsBind)
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metricsSrv.Shutdown(shutdownCtx)
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
