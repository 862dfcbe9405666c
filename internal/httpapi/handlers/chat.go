package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/chat"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/conversation"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/format"
)

type sendMessageReq struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
}

// formatted renders the assistant text through the section parser so the
// client can lay out structured answers without re-parsing.
func formatted(text string) gin.H {
	res := format.Parse(text)
	if !res.Structured {
		return gin.H{
			"structured": false,
			"paragraphs": res.Paragraphs,
		}
	}
	return gin.H{
		"structured": true,
		"problem":    res.Problem,
		"actions":    res.Actions,
		"citations":  res.Citations,
		"stats":      res.Stats,
	}
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	turn, err := h.ChatSvc.Send(c.Request.Context(), uid, req.ConversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			common.Fail(c, http.StatusBadRequest, 10006, "message must not be empty")
		case errors.Is(err, chat.ErrSetupIncomplete):
			common.Fail(c, http.StatusConflict, 40901, "jurisdiction setup incomplete")
		case errors.Is(err, chat.ErrBusy):
			common.Fail(c, http.StatusConflict, 40902, "a request is already in flight for this conversation")
		case errors.Is(err, chat.ErrStale), errors.Is(err, conversation.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "failed to send message")
		}
		return
	}

	assistant := turn.AssistantMessage
	common.OK(c, gin.H{
		"conversation_id": req.ConversationID,
		"failed":          turn.Failed,
		"user_message":    turn.UserMessage,
		"assistant_message": gin.H{
			"id":          assistant.ID,
			"role":        assistant.Role,
			"content":     assistant.Content,
			"citations":   assistant.Citations,
			"confidence":  assistant.Confidence,
			"chunks_used": assistant.ChunksUsed,
			"created_at":  assistant.CreatedAt,
		},
		"formatted": formatted(assistant.Content),
	})
}

func (h *Handler) GetChatStatus(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}

	st, err := h.ChatSvc.Status(c.Request.Context(), uid, c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "conversation not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to read status")
		return
	}
	common.OK(c, st)
}
