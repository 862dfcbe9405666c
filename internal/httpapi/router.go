package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/config"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/httpapi/handlers"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/httpapi/middleware"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/store/redisstore"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/upload"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub upload.JobPublisher, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(logger))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, pub, logger)

	r.GET("/ping", h.Ping)

	// captcha
	r.POST("/captcha", h.SendCaptcha)

	// CRUD users register
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUserByID)

	// auth
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)

	// conversations (JWT required)
	authGroup.POST("/conversations", h.CreateConversation)
	authGroup.GET("/conversations", h.ListConversations)
	authGroup.GET("/conversations/active", h.GetActiveConversation)
	authGroup.PUT("/conversations/active", h.SetActiveConversation)
	authGroup.GET("/conversations/:conversation_id", h.GetConversation)
	authGroup.DELETE("/conversations/:conversation_id", h.DeleteConversation)
	authGroup.GET("/conversations/:conversation_id/status", h.GetChatStatus)

	// chat
	authGroup.POST("/chat/messages", h.SendChatMessage)
	authGroup.PUT("/chat/messages/:message_id/feedback", h.SetMessageFeedback)

	// preferences
	authGroup.GET("/prefs/jurisdiction", h.GetJurisdiction)
	authGroup.PUT("/prefs/jurisdiction", h.PutJurisdiction)
	authGroup.GET("/prefs/category", h.GetLawCategory)
	authGroup.PUT("/prefs/category", h.PutLawCategory)
	authGroup.DELETE("/prefs", h.ClearPreferences)

	// document uploads
	authGroup.POST("/documents", h.UploadDocument)
	authGroup.GET("/documents", h.ListDocuments)
	authGroup.GET("/documents/jobs/:job_id", h.GetIngestJob)

	// live updates
	authGroup.GET("/events", h.StreamEvents)

	return r
}
