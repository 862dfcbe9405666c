package conversation

import (
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	FeedbackLiked    = "liked"
	FeedbackDisliked = "disliked"
)

// DefaultTitle is the placeholder until the first user message arrives.
const DefaultTitle = "New Conversation"

// titleMaxLen is the rune budget for derived titles.
const titleMaxLen = 50

type Conversation struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	Title     string    `gorm:"type:varchar(64);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID;references:ID" json:"messages,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

// Citation mirrors the backend's citation shape; stored verbatim with the
// message that carried it.
type Citation struct {
	Filename string   `json:"filename"`
	Page     *int     `json:"page,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

type Message struct {
	ID             string     `gorm:"primaryKey;size:26" json:"id"`
	ConversationID string     `gorm:"size:26;not null;index:idx_msg_conv_id" json:"conversation_id"`
	UserID         uint64     `gorm:"not null;index" json:"-"`
	Role           string     `gorm:"type:varchar(16);not null" json:"role"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Citations      []Citation `gorm:"serializer:json" json:"citations,omitempty"`
	Confidence     *float64   `json:"confidence,omitempty"`
	ChunksUsed     *int       `json:"chunks_used,omitempty"`
	Feedback       string     `gorm:"type:varchar(8)" json:"feedback,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Message) TableName() string { return "conversation_messages" }

// DeriveTitle produces a conversation title from the first user message:
// a rune-safe prefix capped at titleMaxLen with a trailing ellipsis.
// Newlines collapse to spaces so multi-line questions stay on one line.
func DeriveTitle(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if flat == "" {
		return DefaultTitle
	}
	runes := []rune(flat)
	if len(runes) <= titleMaxLen {
		return flat
	}
	return string(runes[:titleMaxLen]) + "..."
}
