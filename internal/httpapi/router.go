package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lextrack/lextrack/internal/common"
	"github.com/lextrack/lextrack/internal/config"
	"github.com/lextrack/lextrack/internal/httpapi/handlers"
	"github.com/lextrack/lextrack/internal/httpapi/middleware"
	"github.com/lextrack/lextrack/internal/kv"
	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/store/rabbitmq"
)

func NewRouter(db *gorm.DB, cfg config.Config, store kv.Store, ai *legalai.Service, rabbit *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	// browser client
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Idempotency-Key", "X-Request-ID")
	r.Use(cors.New(corsCfg))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, store, ai, rabbit)

	r.GET("/ping", h.Ping)
	r.GET("/theme", h.GetTheme)

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))

	authGroup.GET("/me", h.Me)

	authGroup.GET("/chat/sessions", h.ListChatSessions)
	authGroup.GET("/chat/sessions/:session_id", h.GetChatSession)
	authGroup.POST("/chat/messages", h.SendChatMessage)
	authGroup.POST("/chat/messages/async", h.SendChatMessageAsync)
	authGroup.GET("/chat/jobs/:job_id", h.GetChatJob)
	authGroup.DELETE("/chat/sessions/:session_id", h.DeleteChatSession)
	authGroup.POST("/chat/sessions/:session_id/pin", h.ToggleChatPin)

	authGroup.GET("/cases", h.ListCases)
	authGroup.POST("/cases", h.CreateCase)
	authGroup.DELETE("/cases/:case_id", h.DeleteCase)
	authGroup.POST("/cases/:case_id/research", h.ResearchCase)

	authGroup.GET("/notifications", h.ListNotifications)
	authGroup.POST("/notifications/:notification_id/read", h.MarkNotificationRead)
	authGroup.POST("/notifications/read-all", h.MarkAllNotificationsRead)

	authGroup.GET("/settings", h.GetSettings)
	authGroup.PUT("/settings", h.UpdateSettings)
	authGroup.PUT("/theme", h.SetTheme)

	authGroup.POST("/admin/purge", h.PurgeVault)

	return r
}
