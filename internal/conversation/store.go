package conversation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/common"
)

var (
	ErrNotFound = errors.New("conversation: not found")
)

// ActivePointer tracks which conversation each user currently has open.
// Production uses the redis store; tests plug in an in-memory map.
type ActivePointer interface {
	SetActiveConversation(ctx context.Context, userID uint64, convID string) error
	GetActiveConversation(ctx context.Context, userID uint64) (string, error)
	ClearActiveConversation(ctx context.Context, userID uint64) error
}

// Store is the single source of truth for conversations and the active
// pointer. All mutation goes through it; subscribers observe changes via
// the hub.
type Store struct {
	repo   *Repo
	active ActivePointer
	hub    *Hub
	logger *zap.Logger
}

func NewStore(repo *Repo, active ActivePointer, hub *Hub, logger *zap.Logger) *Store {
	if hub == nil {
		hub = NewHub()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, active: active, hub: hub, logger: logger}
}

func (s *Store) Hub() *Hub { return s.hub }

// Create starts an empty conversation with a placeholder title and makes
// it the active one.
func (s *Store) Create(ctx context.Context, userID uint64) (*Conversation, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	conv := &Conversation{
		ID:     id,
		UserID: userID,
		Title:  DefaultTitle,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}
	if err := s.active.SetActiveConversation(ctx, userID, conv.ID); err != nil {
		s.logger.Warn("failed to set active pointer", zap.Error(err))
	}
	s.hub.Publish(userID, Event{Type: EventCreated, ConversationID: conv.ID})
	return conv, nil
}

// SetActive switches the active pointer. The id is validated against the
// store; switching to an unknown conversation is an error, not a silent
// empty state.
func (s *Store) SetActive(ctx context.Context, userID uint64, id string) error {
	if _, err := s.repo.Get(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.active.SetActiveConversation(ctx, userID, id)
}

// Active returns the id of the user's active conversation, or "" when none
// is set. A stale pointer (conversation since removed) reads as "".
func (s *Store) Active(ctx context.Context, userID uint64) (string, error) {
	id, err := s.active.GetActiveConversation(ctx, userID)
	if err != nil || id == "" {
		return "", err
	}
	if _, err := s.repo.Get(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, userID uint64, id string) (*Conversation, error) {
	c, err := s.repo.GetWithMessages(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *Store) List(ctx context.Context, userID uint64) ([]Conversation, error) {
	return s.repo.List(ctx, userID)
}

func (s *Store) Search(ctx context.Context, userID uint64, query string) ([]Conversation, error) {
	return s.repo.Search(ctx, userID, query)
}

// Append adds one message. The first user-role message fixes the
// conversation title; later messages never change it. The parent's
// updated_at is touched, which moves it to the front of List.
func (s *Store) Append(ctx context.Context, userID uint64, convID, role, content string) (*Message, error) {
	return s.AppendAnswer(ctx, userID, convID, role, content, nil, nil, nil)
}

// AppendAnswer is Append with the optional assistant-answer metadata
// (citations, confidence, source-chunk count).
func (s *Store) AppendAnswer(ctx context.Context, userID uint64, convID, role, content string, citations []Citation, confidence *float64, chunksUsed *int) (*Message, error) {
	conv, err := s.repo.Get(ctx, userID, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	msg := &Message{
		ID:             id,
		ConversationID: convID,
		UserID:         userID,
		Role:           role,
		Content:        content,
		Citations:      citations,
		Confidence:     confidence,
		ChunksUsed:     chunksUsed,
	}

	count, err := s.repo.CountMessages(ctx, convID)
	if err != nil {
		return nil, err
	}

	var newTitle string
	if count == 0 && role == RoleUser && conv.Title == DefaultTitle {
		newTitle = DeriveTitle(content)
	}

	if err := s.repo.InsertMessage(ctx, msg, newTitle); err != nil {
		return nil, err
	}

	s.hub.Publish(userID, Event{Type: EventUpdated, ConversationID: convID})
	return msg, nil
}

// Delete removes the conversation. When it was the active one, the pointer
// moves to the most recently active remaining conversation, or clears.
func (s *Store) Delete(ctx context.Context, userID uint64, id string) error {
	activeID, err := s.active.GetActiveConversation(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to read active pointer", zap.Error(err))
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if activeID == id {
		remaining, err := s.repo.List(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			if err := s.active.SetActiveConversation(ctx, userID, remaining[0].ID); err != nil {
				s.logger.Warn("failed to move active pointer", zap.Error(err))
			}
		} else {
			if err := s.active.ClearActiveConversation(ctx, userID); err != nil {
				s.logger.Warn("failed to clear active pointer", zap.Error(err))
			}
		}
	}

	s.hub.Publish(userID, Event{Type: EventDeleted, ConversationID: id})
	return nil
}

// Exists reports whether the conversation is still present, without
// loading messages. The orchestrator uses it to detect responses that
// resolved after a delete.
func (s *Store) Exists(ctx context.Context, userID uint64, id string) (bool, error) {
	_, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetFeedback records the post-hoc liked/disliked flag on a message.
func (s *Store) SetFeedback(ctx context.Context, userID uint64, messageID, feedback string) error {
	switch feedback {
	case FeedbackLiked, FeedbackDisliked, "":
	default:
		return fmt.Errorf("conversation: invalid feedback %q", feedback)
	}
	err := s.repo.SetFeedback(ctx, userID, messageID, feedback)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
