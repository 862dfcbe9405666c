package conversation

import (
	"context"
	"strings"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type memPointer struct {
	mu   sync.Mutex
	vals map[uint64]string
}

func newMemPointer() *memPointer {
	return &memPointer{vals: make(map[uint64]string)}
}

func (p *memPointer) SetActiveConversation(ctx context.Context, userID uint64, convID string) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vals[userID] = convID
	return nil
}

func (p *memPointer) GetActiveConversation(ctx context.Context, userID uint64) (string, error) {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vals[userID], nil
}

func (p *memPointer) ClearActiveConversation(ctx context.Context, userID uint64) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.vals, userID)
	return nil
}

func openTestStore(t *testing.T) (*Store, *memPointer) {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	ptr := newMemPointer()
	return NewStore(NewRepo(db), ptr, NewHub(), nil), ptr
}

func TestAppend_IncreasesLengthByOne(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	msg, err := store.Append(ctx, 1, conv.ID, RoleUser, "What are demerit points?")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.Role != RoleUser || msg.Content != "What are demerit points?" {
		t.Fatalf("unexpected message: role=%q content=%q", msg.Role, msg.Content)
	}

	got, err := store.Get(ctx, 1, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got.Messages))
	}
}

func TestAppend_BackToBackMessagesReadInInsertionOrder(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Appends land within the same millisecond; the transcript must still
	// read back user-then-assistant per turn.
	contents := []string{"q1", "a1", "q2", "a2", "q3", "a3"}
	for i, content := range contents {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := store.Append(ctx, 1, conv.ID, role, content); err != nil {
			t.Fatalf("append %q: %v", content, err)
		}
	}

	got, err := store.Get(ctx, 1, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Messages) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(got.Messages))
	}
	for i, m := range got.Messages {
		if m.Content != contents[i] {
			t.Fatalf("position %d = %q, want %q", i, m.Content, contents[i])
		}
		if i > 0 && !(got.Messages[i].ID > got.Messages[i-1].ID) {
			t.Fatalf("id %q at position %d not greater than %q", m.ID, i, got.Messages[i-1].ID)
		}
	}
}

func TestAppend_FirstUserMessageDerivesTitle(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, _ := store.Create(ctx, 1)

	long := strings.Repeat("a", 60)
	if _, err := store.Append(ctx, 1, conv.ID, RoleUser, long); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _ := store.Get(ctx, 1, conv.ID)
	want := strings.Repeat("a", 50) + "..."
	if got.Title != want {
		t.Fatalf("title = %q, want %q", got.Title, want)
	}

	// Subsequent messages never change the title.
	if _, err := store.Append(ctx, 1, conv.ID, RoleUser, "another question entirely"); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, _ = store.Get(ctx, 1, conv.ID)
	if got.Title != want {
		t.Fatalf("title changed to %q after second message", got.Title)
	}
}

func TestAppend_TitleAndMessageCommitTogether(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created := conv.UpdatedAt

	if _, err := store.Append(ctx, 1, conv.ID, RoleUser, "Can I appeal a parking ticket?"); err != nil {
		t.Fatalf("append: %v", err)
	}

	// One read sees the whole turn: message, derived title, bumped
	// updated_at.
	got, err := store.Get(ctx, 1, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got.Messages))
	}
	if got.Title != "Can I appeal a parking ticket?" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.UpdatedAt.Before(created) {
		t.Fatalf("updated_at not touched: %v < %v", got.UpdatedAt, created)
	}
}

func TestAppend_ShortTitleKeptVerbatim(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, _ := store.Create(ctx, 1)
	if _, err := store.Append(ctx, 1, conv.ID, RoleUser, "Speeding ticket"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _ := store.Get(ctx, 1, conv.ID)
	if got.Title != "Speeding ticket" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestAppend_AssistantFirstDoesNotSetTitle(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, _ := store.Create(ctx, 1)
	if _, err := store.Append(ctx, 1, conv.ID, RoleAssistant, "Hello, how can I help?"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _ := store.Get(ctx, 1, conv.ID)
	if got.Title != DefaultTitle {
		t.Fatalf("title = %q, want placeholder", got.Title)
	}
}

func TestCreate_SetsActivePointer(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, _ := store.Create(ctx, 1)

	active, err := store.Active(ctx, 1)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active != conv.ID {
		t.Fatalf("active = %q, want %q", active, conv.ID)
	}
}

func TestSetActive_UnknownIDIsError(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	_, _ = store.Create(ctx, 1)
	if err := store.SetActive(ctx, 1, "01UNKNOWN0000000000000000"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_ActiveMovesToFirstRemaining(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	older, _ := store.Create(ctx, 1)
	newer, _ := store.Create(ctx, 1)

	// newer is active; deleting it should hand the pointer to older.
	if err := store.Delete(ctx, 1, newer.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	active, _ := store.Active(ctx, 1)
	if active != older.ID {
		t.Fatalf("active = %q, want %q", active, older.ID)
	}

	if err := store.Delete(ctx, 1, older.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	active, _ = store.Active(ctx, 1)
	if active != "" {
		t.Fatalf("active = %q, want empty", active)
	}
}

func TestDelete_NonActiveLeavesPointer(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	other, _ := store.Create(ctx, 1)
	active, _ := store.Create(ctx, 1)

	if err := store.Delete(ctx, 1, other.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := store.Active(ctx, 1)
	if got != active.ID {
		t.Fatalf("active = %q, want %q", got, active.ID)
	}
}

func TestDelete_RemovesMessages(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, _ := store.Create(ctx, 1)
	_, _ = store.Append(ctx, 1, conv.ID, RoleUser, "hello")

	if err := store.Delete(ctx, 1, conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	exists, err := store.Exists(ctx, 1, conv.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("conversation still exists after delete")
	}
}

func TestSearch_EmptyQueryReturnsAll(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	_, _ = store.Create(ctx, 1)
	_, _ = store.Create(ctx, 1)

	got, err := store.Search(ctx, 1, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(got))
	}
}

func TestSearch_MatchesTitleAndContentCaseInsensitive(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	byTitle, _ := store.Create(ctx, 1)
	_, _ = store.Append(ctx, 1, byTitle.ID, RoleUser, "Parking Ticket dispute")

	byContent, _ := store.Create(ctx, 1)
	_, _ = store.Append(ctx, 1, byContent.ID, RoleUser, "something else")
	_, _ = store.Append(ctx, 1, byContent.ID, RoleAssistant, "You can dispute the TICKET by...")

	noMatch, _ := store.Create(ctx, 1)
	_, _ = store.Append(ctx, 1, noMatch.ID, RoleUser, "tenancy question")

	got, err := store.Search(ctx, 1, "ticket")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	found := map[string]bool{}
	for _, c := range got {
		found[c.ID] = true
	}
	if !found[byTitle.ID] || !found[byContent.ID] {
		t.Fatalf("wrong match set: %v", found)
	}
}

func TestSearch_ScopedToUser(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mine, _ := store.Create(ctx, 1)
	_, _ = store.Append(ctx, 1, mine.ID, RoleUser, "ticket")

	theirs, _ := store.Create(ctx, 2)
	_, _ = store.Append(ctx, 2, theirs.ID, RoleUser, "ticket")

	got, _ := store.Search(ctx, 1, "ticket")
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("search leaked across users: %+v", got)
	}
}

func TestList_MostRecentlyActiveFirst(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	first, _ := store.Create(ctx, 1)
	second, _ := store.Create(ctx, 1)

	// Sending a message on the older conversation moves it to the front.
	if _, err := store.Append(ctx, 1, first.ID, RoleUser, "bump"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, first.ID, second.ID)
	}
}

func TestSetFeedback(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	conv, _ := store.Create(ctx, 1)
	msg, _ := store.Append(ctx, 1, conv.ID, RoleAssistant, "answer")

	if err := store.SetFeedback(ctx, 1, msg.ID, FeedbackLiked); err != nil {
		t.Fatalf("set feedback: %v", err)
	}
	got, _ := store.Get(ctx, 1, conv.ID)
	if got.Messages[0].Feedback != FeedbackLiked {
		t.Fatalf("feedback = %q", got.Messages[0].Feedback)
	}

	if err := store.SetFeedback(ctx, 1, msg.ID, "meh"); err == nil {
		t.Fatalf("expected error for invalid feedback value")
	}
}

func TestHub_PublishesStoreEvents(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	events, cancel := store.Hub().Subscribe(1)
	defer cancel()

	conv, _ := store.Create(ctx, 1)

	ev := <-events
	if ev.Type != EventCreated || ev.ConversationID != conv.ID {
		t.Fatalf("unexpected event: %+v", ev)
	}

	_, _ = store.Append(ctx, 1, conv.ID, RoleUser, "hi")
	ev = <-events
	if ev.Type != EventUpdated {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
