package conversation

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Get returns the conversation without its messages, scoped to the owner.
func (r *Repo) Get(ctx context.Context, userID uint64, id string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetWithMessages loads the conversation and its messages in append order.
func (r *Repo) GetWithMessages(ctx context.Context, userID uint64, id string) (*Conversation, error) {
	c, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", id).
		Order("id ASC").
		Find(&c.Messages).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the user's conversations most-recently-active first. Message
// append touches updated_at, so a conversation that just received a message
// sorts to the front.
func (r *Repo) List(ctx context.Context, userID uint64) ([]Conversation, error) {
	var convs []Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

// Search filters by case-insensitive substring over conversation titles and
// message contents. An empty query returns the full list.
func (r *Repo) Search(ctx context.Context, userID uint64, query string) ([]Conversation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx, userID)
	}
	pattern := "%" + strings.ToLower(query) + "%"

	sub := r.db.Model(&Message{}).
		Select("conversation_id").
		Where("user_id = ? AND LOWER(content) LIKE ?", userID, pattern)

	var convs []Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("LOWER(title) LIKE ? OR id IN (?)", pattern, sub).
		Order("updated_at DESC, id DESC").
		Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

// Delete removes the conversation and its messages.
func (r *Repo) Delete(ctx context.Context, userID uint64, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("conversation_id = ?", id).Delete(&Message{}).Error
	})
}

// InsertMessage appends the message, touches the parent's updated_at and,
// when newTitle is non-empty, fixes the conversation title — all in one
// transaction, so a turn is never observed half-applied.
func (r *Repo) InsertMessage(ctx context.Context, m *Message, newTitle string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		cols := map[string]any{"updated_at": time.Now()}
		if newTitle != "" {
			cols["title"] = newTitle
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", m.ConversationID).
			Updates(cols).Error
	})
}

func (r *Repo) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error
	return n, err
}

// SetFeedback updates the UI-only liked/disliked flag on a message.
func (r *Repo) SetFeedback(ctx context.Context, userID uint64, messageID, feedback string) error {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND user_id = ?", messageID, userID).
		Update("feedback", feedback)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) GetMessage(ctx context.Context, userID uint64, messageID string) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
