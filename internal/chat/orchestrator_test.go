package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noovy/concierge/internal/knowledge"
	"github.com/noovy/concierge/internal/llm"
	"github.com/noovy/concierge/internal/memory"
	"github.com/noovy/concierge/internal/skills"
	"github.com/noovy/concierge/pkg/api"
)

type stubGenerator struct {
	reply      string
	err        error
	lastKBCtx  string
	lastInput  []api.Message
	generation int
}

func (s *stubGenerator) Generate(ctx context.Context, messages []api.Message, kbContext string) (string, error) {
	s.generation++
	s.lastInput = messages
	s.lastKBCtx = kbContext
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubGenerator) Summarize(ctx context.Context, messages []api.Message) (string, error) {
	return "", nil
}

func (s *stubGenerator) Available() bool { return s.err == nil }

func newTestOrchestrator(t *testing.T, gen llm.Generator) *Orchestrator {
	t.Helper()
	kb := knowledge.NewKeywordStoreInMemory()
	if err := knowledge.Seed(context.Background(), kb); err != nil {
		t.Fatal(err)
	}
	reg := skills.NewRegistry()
	skills.RegisterDefaults(reg, kb)
	return New(gen, kb, reg, memory.NewRegistry(memory.DefaultConfig()))
}

func TestProcessMessageFullTurn(t *testing.T) {
	gen := &stubGenerator{reply: "הנה התשובה"}
	o := newTestOrchestrator(t, gen)

	resp, err := o.ProcessMessage(context.Background(), "איך מאפסים סיסמה?", "")
	if err != nil {
		t.Fatal(err)
	}

	if resp.Response != "הנה התשובה" {
		t.Errorf("unexpected reply %q", resp.Response)
	}
	if resp.SessionID == "" {
		t.Error("expected generated session id")
	}
	if len(resp.Sources) == 0 || resp.Sources[0].Title != "התחברות למערכת" {
		t.Errorf("expected login article source, got %v", resp.Sources)
	}
	if resp.Sources[0].Relevance <= 0 {
		t.Errorf("relevance should be positive, got %f", resp.Sources[0].Relevance)
	}
	if len(resp.SkillsUsed) == 0 {
		t.Error("expected at least the language skill to run")
	}
	if resp.MemoryStats.ShortTermCount != 1 {
		t.Errorf("interaction should be recorded, got %d", resp.MemoryStats.ShortTermCount)
	}

	history, err := o.History(resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("unexpected transcript %v", history)
	}
}

func TestProcessMessageContinuesSession(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	o := newTestOrchestrator(t, gen)
	ctx := context.Background()

	first, err := o.ProcessMessage(ctx, "שלום", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.ProcessMessage(ctx, "עוד שאלה", first.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if second.SessionID != first.SessionID {
		t.Error("known session id must be reused")
	}
	if len(gen.lastInput) != 3 {
		t.Errorf("model should see the running transcript, got %d messages", len(gen.lastInput))
	}
}

func TestProcessMessageUnknownSessionGetsNewID(t *testing.T) {
	o := newTestOrchestrator(t, &stubGenerator{reply: "ok"})
	resp, err := o.ProcessMessage(context.Background(), "hi", "not-a-session")
	if err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "not-a-session" {
		t.Error("unknown session id must not be adopted")
	}
}

func TestProcessMessageUpstreamFailureKeepsUserMessage(t *testing.T) {
	gen := &stubGenerator{err: llm.ErrUnavailable}
	o := newTestOrchestrator(t, gen)

	_, err := o.ProcessMessage(context.Background(), "שאלה חשובה", "")
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	ids := o.ActiveSessions()
	if len(ids) != 1 {
		t.Fatalf("expected 1 session, got %d", len(ids))
	}
	history, err := o.History(ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Content != "שאלה חשובה" {
		t.Errorf("user message must survive upstream failure, got %v", history)
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	o := newTestOrchestrator(t, &stubGenerator{reply: "ok"})
	if _, err := o.History("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	o := newTestOrchestrator(t, &stubGenerator{reply: "ok"})
	resp, err := o.ProcessMessage(context.Background(), "hi", "")
	if err != nil {
		t.Fatal(err)
	}

	o.DeleteSession(resp.SessionID)
	if _, err := o.History(resp.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("transcript should be gone")
	}
	if _, err := o.Memories().Get(resp.SessionID); !errors.Is(err, memory.ErrSessionNotFound) {
		t.Error("memory should be gone")
	}
}

func TestSessionMemoryExport(t *testing.T) {
	o := newTestOrchestrator(t, &stubGenerator{reply: "ok"})
	resp, err := o.ProcessMessage(context.Background(), "שאלה על דוח", "")
	if err != nil {
		t.Fatal(err)
	}

	export, err := o.SessionMemoryExport(resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if export.SessionID != resp.SessionID || len(export.ShortTerm) != 1 {
		t.Errorf("unexpected export %+v", export)
	}

	if _, err := o.SessionMemoryExport("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("unknown session should error")
	}
}

func TestCleanup(t *testing.T) {
	o := newTestOrchestrator(t, &stubGenerator{reply: "ok"})
	resp, err := o.ProcessMessage(context.Background(), "hi", "")
	if err != nil {
		t.Fatal(err)
	}

	if removed := o.Cleanup(time.Hour); removed != 0 {
		t.Errorf("fresh session must survive, removed %d", removed)
	}
	if removed := o.Cleanup(0); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if _, err := o.History(resp.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("cleaned session transcript should be gone")
	}
}

func TestTotalMessages(t *testing.T) {
	o := newTestOrchestrator(t, &stubGenerator{reply: "ok"})
	ctx := context.Background()
	if _, err := o.ProcessMessage(ctx, "a", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProcessMessage(ctx, "b", ""); err != nil {
		t.Fatal(err)
	}
	if got := o.TotalMessages(); got != 4 {
		t.Errorf("expected 4 messages across sessions, got %d", got)
	}
}
