// Package chat coordinates one "user asks, assistant answers" round trip
// against the legal-answer backend, guarding each conversation against
// duplicate in-flight requests and against responses that resolve after
// the conversation is gone.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/brain"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/conversation"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/prefs"
)

var (
	ErrEmptyMessage    = errors.New("chat: empty message")
	ErrBusy            = errors.New("chat: request already in flight for this conversation")
	ErrSetupIncomplete = errors.New("chat: jurisdiction preferences incomplete")

	// ErrStale marks a response that resolved after its conversation was
	// deleted or superseded; the answer is discarded, never appended.
	ErrStale = errors.New("chat: response arrived for a stale request")
)

type State string

const (
	StateIdle     State = "idle"
	StateSending  State = "sending"
	StateAwaiting State = "awaiting-response"
)

// Status is the per-conversation request lifecycle exposed to the UI. The
// notice is purely cosmetic; it never affects the request itself.
type Status struct {
	State  State  `json:"state"`
	Notice string `json:"notice,omitempty"`
}

const (
	slowResponseAfter = 8 * time.Second
	slowNotice        = "This is taking a bit longer than usual. Still working on it..."

	apologyText = "Sorry, I ran into a problem while preparing your answer. Please try again in a moment."
)

// Turn is the result of one completed round trip. Failed means the backend
// call did not succeed and the assistant message carries the apology text.
type Turn struct {
	UserMessage      *conversation.Message
	AssistantMessage *conversation.Message
	Failed           bool
}

type Service struct {
	convs        *conversation.Store
	prefs        *prefs.Store
	registry     *brain.Registry
	providerName string
	topK         int
	logger       *zap.Logger

	mu       sync.Mutex
	inflight map[string]bool
	gens     map[string]uint64
	statuses map[string]Status
}

func NewService(convs *conversation.Store, prefStore *prefs.Store, registry *brain.Registry, providerName string, topK int, logger *zap.Logger) *Service {
	if providerName == "" {
		providerName = "rest"
	}
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		convs:        convs,
		prefs:        prefStore,
		registry:     registry,
		providerName: providerName,
		topK:         topK,
		logger:       logger,
		inflight:     make(map[string]bool),
		gens:         make(map[string]uint64),
		statuses:     make(map[string]Status),
	}
}

// Status reports the request lifecycle for one of the user's
// conversations; idle when no request is in flight.
func (s *Service) Status(ctx context.Context, userID uint64, convID string) (Status, error) {
	exists, err := s.convs.Exists(ctx, userID, convID)
	if err != nil {
		return Status{}, err
	}
	if !exists {
		return Status{}, conversation.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.statuses[convID]; ok {
		return st, nil
	}
	return Status{State: StateIdle}, nil
}

// Send runs one round trip: append the user message, call the backend with
// the user's jurisdiction context, append the assistant answer. A backend
// failure is not an error to the caller; it becomes an apology message in
// the transcript.
func (s *Service) Send(ctx context.Context, userID uint64, convID, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	j, err := s.prefs.GetJurisdiction(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !j.IsSetupComplete() {
		return nil, ErrSetupIncomplete
	}
	cat, err := s.prefs.GetCategory(ctx, userID)
	if err != nil {
		return nil, err
	}

	gen, err := s.begin(convID)
	if err != nil {
		return nil, err
	}
	defer s.finish(convID, gen)

	userMsg, err := s.convs.Append(ctx, userID, convID, conversation.RoleUser, text)
	if err != nil {
		return nil, err
	}

	s.setStatus(convID, gen, Status{State: StateAwaiting})
	timer := time.AfterFunc(slowResponseAfter, func() {
		s.setStatus(convID, gen, Status{State: StateAwaiting, Notice: slowNotice})
	})
	defer timer.Stop()

	answer, askErr := s.ask(ctx, j, cat, text)

	// The call may resolve long after the user moved on. Discard anything
	// aimed at a deleted or superseded conversation.
	if !s.current(convID, gen) {
		s.logger.Info("discarding stale answer", zap.String("conversation_id", convID))
		return nil, ErrStale
	}
	exists, err := s.convs.Exists(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.logger.Info("discarding answer for deleted conversation", zap.String("conversation_id", convID))
		return nil, conversation.ErrNotFound
	}

	if askErr != nil {
		s.logger.Warn("brain request failed",
			zap.String("conversation_id", convID),
			zap.Error(askErr))
		apology, err := s.convs.Append(ctx, userID, convID, conversation.RoleAssistant, apologyText)
		if err != nil {
			return nil, err
		}
		return &Turn{UserMessage: userMsg, AssistantMessage: apology, Failed: true}, nil
	}

	assistantMsg, err := s.convs.AppendAnswer(ctx, userID, convID,
		conversation.RoleAssistant, answer.Text,
		toCitations(answer.Citations), answer.Confidence, chunksPtr(answer.ChunksUsed))
	if err != nil {
		return nil, err
	}

	return &Turn{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

// DeleteConversation invalidates any in-flight request for the
// conversation before removing it, so a late response cannot re-append.
func (s *Service) DeleteConversation(ctx context.Context, userID uint64, convID string) error {
	s.mu.Lock()
	s.gens[convID]++
	delete(s.statuses, convID)
	s.mu.Unlock()

	return s.convs.Delete(ctx, userID, convID)
}

func (s *Service) ask(ctx context.Context, j prefs.Jurisdiction, cat prefs.CategorySelection, text string) (*brain.Answer, error) {
	provider, err := s.registry.Get(ctx, s.providerName)
	if err != nil {
		return nil, err
	}
	return provider.Ask(ctx, brain.Question{
		Message:       text,
		Language:      j.Language,
		Country:       j.Country,
		Province:      j.Province,
		LawCategory:   cat.Category,
		LawType:       cat.LawType,
		Jurisdiction:  cat.Jurisdiction,
		OffenceNumber: j.CaseNumber,
		TopK:          s.topK,
	})
}

func (s *Service) begin(convID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[convID] {
		return 0, ErrBusy
	}
	s.inflight[convID] = true
	s.gens[convID]++
	gen := s.gens[convID]
	s.statuses[convID] = Status{State: StateSending}
	return gen, nil
}

func (s *Service) finish(convID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, convID)
	if s.gens[convID] == gen {
		delete(s.statuses, convID)
	}
}

func (s *Service) setStatus(convID string, gen uint64, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[convID] == gen {
		s.statuses[convID] = st
	}
}

func (s *Service) current(convID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[convID] == gen
}

func toCitations(in []brain.Citation) []conversation.Citation {
	if len(in) == 0 {
		return nil
	}
	out := make([]conversation.Citation, 0, len(in))
	for _, c := range in {
		out = append(out, conversation.Citation{
			Filename: c.Filename,
			Page:     c.Page,
			Score:    c.Score,
		})
	}
	return out
}

func chunksPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
