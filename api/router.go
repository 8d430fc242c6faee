package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Bookings *BookingHandler
	Payments *PaymentHandler
	Tickets  *TicketsHandler
	Users    *UsersHandler
	Feedback *FeedbackHandler
	Admin    *AdminHandler
}

type RouterConfig struct {
	Logger         *slog.Logger
	Tokens         TokenParser
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and every route group.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(cfg.Logger), CORS(cfg.AllowedOrigins), Authenticate(cfg.Tokens))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := router.Group("")
	authed := router.Group("", RequireUser())
	admin := router.Group("/admin", RequireUser(), RequireAdmin())

	h.Users.RegisterAuth(public)
	h.Users.RegisterProfile(authed)
	h.Bookings.Register(public, authed)
	h.Payments.Register(authed)
	h.Tickets.Register(authed)
	h.Feedback.Register(authed)
	h.Admin.Register(admin)

	return router
}
