package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/conversation"
)

func conversationSummary(conv conversation.Conversation) gin.H {
	return gin.H{
		"id":         conv.ID,
		"title":      conv.Title,
		"created_at": conv.CreatedAt,
		"updated_at": conv.UpdatedAt,
	}
}

func (h *Handler) CreateConversation(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	conv, err := h.Convs.Create(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create conversation")
		return
	}

	common.OK(c, conversationSummary(*conv))
}

// ListConversations returns the user's conversations, most recently active
// first. With ?q= it filters by title or message content.
func (h *Handler) ListConversations(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	convs, err := h.Convs.Search(c.Request.Context(), uid, c.Query("q"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list conversations")
		return
	}

	out := make([]gin.H, 0, len(convs))
	for _, conv := range convs {
		out = append(out, conversationSummary(conv))
	}
	common.OK(c, gin.H{"conversations": out})
}

func (h *Handler) GetConversation(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	conv, err := h.Convs.Get(c.Request.Context(), uid, c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load conversation")
		return
	}

	common.OK(c, gin.H{
		"id":         conv.ID,
		"title":      conv.Title,
		"created_at": conv.CreatedAt,
		"updated_at": conv.UpdatedAt,
		"messages":   conv.Messages,
	})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	err := h.ChatSvc.DeleteConversation(c.Request.Context(), uid, c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to delete conversation")
		return
	}

	common.OK(c, gin.H{"deleted": true})
}

func (h *Handler) GetActiveConversation(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	id, err := h.Convs.Active(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to read active conversation")
		return
	}

	common.OK(c, gin.H{"conversation_id": id})
}

type setActiveReq struct {
	ConversationID string `json:"conversation_id" binding:"required"`
}

func (h *Handler) SetActiveConversation(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	var req setActiveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if err := h.Convs.SetActive(c.Request.Context(), uid, req.ConversationID); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to set active conversation")
		return
	}

	common.OK(c, gin.H{"conversation_id": req.ConversationID})
}

type feedbackReq struct {
	Feedback string `json:"feedback" binding:"required"`
}

func (h *Handler) SetMessageFeedback(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	err := h.Convs.SetFeedback(c.Request.Context(), uid, c.Param("message_id"), req.Feedback)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40405, "message not found")
			return
		}
		common.Fail(c, http.StatusBadRequest, 10005, "invalid feedback value")
		return
	}

	common.OK(c, gin.H{"feedback": req.Feedback})
}
