package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/brain"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/chat"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/config"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/conversation"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/httpapi/middleware"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/prefs"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/store/redisstore"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/upload"
)

type Handler struct {
	DB     *gorm.DB
	Cfg    config.Config
	Redis  *redisstore.Store
	Logger *zap.Logger

	ChatSvc *chat.Service
	Convs   *conversation.Store
	Prefs   *prefs.Store
	Uploads *upload.Service
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub upload.JobPublisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	providerName := strings.ToLower(cfg.BrainProvider)
	switch providerName {
	case "":
		providerName = "rest"
	case "rest":
	default:
		panic(fmt.Sprintf("unsupported BRAIN_PROVIDER=%q", cfg.BrainProvider))
	}

	reg := brain.NewRegistry()
	reg.Register("rest", func(ctx context.Context) (brain.Provider, error) {
		_ = ctx
		return brain.NewRESTProvider(cfg.BrainBaseURL, cfg.BrainAPIKey), nil
	})

	convs := conversation.NewStore(conversation.NewRepo(db), rds, conversation.NewHub(), logger)
	prefStore := prefs.NewStore(db, logger)
	chatSvc := chat.NewService(convs, prefStore, reg, providerName, cfg.BrainTopK, logger)
	uploads := upload.NewService(upload.NewRepo(db), pub, cfg.UploadDir, logger)

	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Redis:   rds,
		Logger:  logger,
		ChatSvc: chatSvc,
		Convs:   convs,
		Prefs:   prefStore,
		Uploads: uploads,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func mustUserID(c *gin.Context) (uint64, bool) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
	}
	return uid, ok
}
