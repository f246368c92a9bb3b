package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pairline/pairline-server/internal/auth"
	"github.com/pairline/pairline-server/internal/config"
	"github.com/pairline/pairline-server/internal/core"
	"github.com/pairline/pairline-server/internal/store"
)

// NewServer builds the HTTP server: REST API, WebSocket endpoint, health.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, st, cfg.WSMessageRateLimit, logger)))

	authHandlers := NewAuthHandlers(authService, logger)
	userHandlers := NewUserHandlers(st, logger)
	chatHandlers := NewChatHandlers(st, logger)

	api := router.Group("/api")
	api.POST("/register", authHandlers.Register)
	api.POST("/login", authHandlers.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(authService, logger))
	protected.GET("/users", userHandlers.ListUsers)
	protected.GET("/chats", chatHandlers.ListChats)
	protected.POST("/chats", chatHandlers.CreateChat)
	protected.GET("/chats/:id/messages", chatHandlers.ListMessages)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
