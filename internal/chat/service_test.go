package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lextrack/lextrack/internal/kv"
	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/vault"
)

type scriptedProvider struct {
	answer  string
	agent   string
	fail    bool
	queries []string
	history [][]legalai.HistoryMessage
}

func (p *scriptedProvider) AnalyzeQuery(_ context.Context, query string, history []legalai.HistoryMessage, _ string, _ []legalai.Attachment) (legalai.Analysis, error) {
	p.queries = append(p.queries, query)
	p.history = append(p.history, history)
	if p.fail {
		return legalai.Analysis{}, context.DeadlineExceeded
	}
	return legalai.Analysis{
		AgentType: p.agent,
		Answer:    p.answer,
		Safety:    &vault.SafetyMetrics{Decision: "ALLOW", Confidence: 98, RiskScore: 3},
	}, nil
}

func (p *scriptedProvider) SuggestRequiredDocuments(context.Context, string, string) ([]string, error) {
	return nil, nil
}

func (p *scriptedProvider) ResearchCase(context.Context, string, string) (legalai.Research, error) {
	return legalai.Research{}, nil
}

func newTestService(p legalai.Provider) (*Service, *vault.Store) {
	store := vault.New(kv.NewMemoryStore())
	return NewService(store, legalai.NewService(p)), store
}

func TestSessionTitle(t *testing.T) {
	long := strings.Repeat("a", 50)
	got := SessionTitle(long)
	if got != strings.Repeat("a", 40)+"..." {
		t.Fatalf("long title = %q", got)
	}
	if SessionTitle("short query") != "short query" {
		t.Fatalf("short title altered")
	}
	if got := SessionTitle(strings.Repeat("क", 41)); got != strings.Repeat("क", 40)+"..." {
		t.Fatalf("rune truncation = %q", got)
	}
}

func TestSendMessageCreatesSession(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{answer: "File under Section 154.", agent: "strategist"}
	svc, store := newTestService(p)

	sess, reply, err := svc.SendMessage(ctx, "u1", "advocate", "", "How do I file an FIR?", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sess.Title != "How do I file an FIR?" {
		t.Fatalf("title = %q", sess.Title)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(sess.Messages))
	}
	if reply.Role != "assistant" || reply.Content != "File under Section 154." {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.AgentUsed != "strategist" || reply.Safety == nil {
		t.Fatalf("reply missing agent/safety: %+v", reply)
	}

	persisted, err := store.LoadChats(ctx, "u1")
	if err != nil || len(persisted) != 1 {
		t.Fatalf("persisted = %v, %v", persisted, err)
	}
}

func TestSendMessageHistoryExcludesCurrentTurn(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{answer: "ok", agent: "navigator"}
	svc, _ := newTestService(p)

	sess, _, err := svc.SendMessage(ctx, "u1", "client", "", "first question", nil)
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, _, err := svc.SendMessage(ctx, "u1", "client", sess.ID, "second question", nil); err != nil {
		t.Fatalf("second send: %v", err)
	}

	if len(p.history[0]) != 0 {
		t.Fatalf("first turn history = %d, want 0", len(p.history[0]))
	}
	// Second turn sees only the completed first turn.
	if len(p.history[1]) != 2 {
		t.Fatalf("second turn history = %d, want 2", len(p.history[1]))
	}
	if p.history[1][0].Content != "first question" {
		t.Fatalf("history order wrong: %+v", p.history[1])
	}
}

func TestSendMessageFallbackOnProviderFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&scriptedProvider{fail: true})

	sess, reply, err := svc.SendMessage(ctx, "u1", "advocate", "", "anything", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply.Content != "System failure." || reply.AgentUsed != "safety" {
		t.Fatalf("fallback reply = %+v", reply)
	}
	if reply.Safety == nil || reply.Safety.Decision != "ESCALATE" || reply.Safety.RiskScore != 100 {
		t.Fatalf("fallback safety = %+v", reply.Safety)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("fallback still persists both turns, got %d", len(sess.Messages))
	}
}

func TestListSessionsPinnedFirstThenNewest(t *testing.T) {
	ctx := context.Background()
	store := vault.New(kv.NewMemoryStore())
	svc := NewService(store, legalai.NewService(&scriptedProvider{answer: "ok"}))

	now := time.Now()
	seed := []vault.ChatSession{
		{ID: "old", UserID: "u1", Title: "old", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "pinned", UserID: "u1", Title: "pinned", CreatedAt: now.Add(-2 * time.Hour), IsPinned: true},
		{ID: "new", UserID: "u1", Title: "new", CreatedAt: now},
	}
	if err := store.SaveChats(ctx, "u1", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.ListSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	var order []string
	for _, s := range got {
		order = append(order, s.ID)
	}
	want := []string{"pinned", "new", "old"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestAppendAssistantReply(t *testing.T) {
	ctx := context.Background()
	p := &scriptedProvider{answer: "deferred answer", agent: "strategist"}
	svc, _ := newTestService(p)

	sess, err := svc.AppendUserMessage(ctx, "u1", "advocate", "", "queued question", nil)
	if err != nil {
		t.Fatalf("AppendUserMessage: %v", err)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("queued path appended %d messages", len(sess.Messages))
	}

	reply, err := svc.AppendAssistantReply(ctx, "u1", sess.ID)
	if err != nil {
		t.Fatalf("AppendAssistantReply: %v", err)
	}
	if reply.Content != "deferred answer" {
		t.Fatalf("reply = %q", reply.Content)
	}
	if p.queries[len(p.queries)-1] != "queued question" {
		t.Fatalf("worker queried %q", p.queries[len(p.queries)-1])
	}

	got, err := svc.GetSession(ctx, "u1", sess.ID)
	if err != nil || len(got.Messages) != 2 {
		t.Fatalf("session after reply = %+v, %v", got, err)
	}
}

func TestAppendAssistantReplyWrongOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&scriptedProvider{answer: "ok"})

	sess, err := svc.AppendUserMessage(ctx, "u1", "client", "", "mine", nil)
	if err != nil {
		t.Fatalf("AppendUserMessage: %v", err)
	}
	if _, err := svc.AppendAssistantReply(ctx, "u2", sess.ID); err != ErrSessionNotFound {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteAndPin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&scriptedProvider{answer: "ok"})

	sess, _, err := svc.SendMessage(ctx, "u1", "advocate", "", "keep me", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	pinned, err := svc.TogglePin(ctx, "u1", sess.ID)
	if err != nil || !pinned.IsPinned {
		t.Fatalf("pin = %+v, %v", pinned, err)
	}
	unpinned, err := svc.TogglePin(ctx, "u1", sess.ID)
	if err != nil || unpinned.IsPinned {
		t.Fatalf("unpin = %+v, %v", unpinned, err)
	}

	if err := svc.DeleteSession(ctx, "u1", sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := svc.DeleteSession(ctx, "u1", sess.ID); err != ErrSessionNotFound {
		t.Fatalf("second delete err = %v", err)
	}
	got, err := svc.ListSessions(ctx, "u1")
	if err != nil || len(got) != 0 {
		t.Fatalf("sessions after delete = %v, %v", got, err)
	}
}
