// Package api exposes the HTTP surface: auth, projects, messages, and the
// websocket endpoint into the relay.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radarjoki/backend/internal/auth"
	"github.com/radarjoki/backend/internal/relay"
	"github.com/radarjoki/backend/internal/store"
	"github.com/radarjoki/backend/pkg/logger"
)

// Handler carries the dependencies for all HTTP routes. The relay enters
// only through the Broadcaster interface; handlers never touch the session
// registry.
type Handler struct {
	store       *store.Store
	authManager *auth.Manager
	broadcaster relay.Broadcaster
	ws          *relay.WSServer
	corsOrigin  string
	logger      *logger.Logger
}

// NewHandler wires the HTTP layer.
func NewHandler(st *store.Store, am *auth.Manager, bc relay.Broadcaster, ws *relay.WSServer, corsOrigin string, log *logger.Logger) *Handler {
	return &Handler{
		store:       st,
		authManager: am,
		broadcaster: bc,
		ws:          ws,
		corsOrigin:  corsOrigin,
		logger:      log.WithComponent("api"),
	}
}

// RegisterRoutes mounts all routes on the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.corsMiddleware())

	r.GET("/", func(c *gin.Context) {
		respondOK(c, "Welcome to RadarJoki API", nil)
	})

	r.GET("/ws", h.ws.Handle)

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", h.logout)
	authGroup.GET("/me", auth.Required(h.authManager), h.me)

	projects := apiGroup.Group("/projects", auth.Required(h.authManager))
	projects.GET("", h.listProjects)
	projects.POST("", h.createProject)
	projects.GET("/:id", h.getProject)
	projects.PUT("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)
	projects.POST("/:id/bid", h.placeBid)
	projects.POST("/:id/message", h.createMessage)
	projects.GET("/:id/message", h.getMessage)
	projects.PUT("/:id/message", h.updateMessage)
	projects.DELETE("/:id/message", h.deleteMessage)
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", h.corsOrigin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
