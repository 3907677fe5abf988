package memory

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBaseRelevance(t *testing.T) {
	q := Tokenize("how to reset password")
	score := BaseRelevance(q, "reset your password from the login page")
	if score != 0.5 {
		t.Errorf("expected 0.5, got %f", score)
	}

	if got := BaseRelevance(Tokenize(""), "anything"); got != 0 {
		t.Errorf("empty query should score 0, got %f", got)
	}

	if got := BaseRelevance(q, ""); got != 0 {
		t.Errorf("empty candidate should score 0, got %f", got)
	}

	full := BaseRelevance(Tokenize("room booking"), "Room booking instructions")
	if full != 1 {
		t.Errorf("all-words match should score 1, got %f", full)
	}
}

func TestTokenizeStripsPunctuation(t *testing.T) {
	words := Tokenize("להתחברות: הזינו סיסמה, אחר כך 'סיסמה' זמנית.")
	for _, w := range []string{"להתחברות", "הזינו", "סיסמה", "זמנית"} {
		if _, ok := words[w]; !ok {
			t.Errorf("expected token %q in %v", w, words)
		}
	}
	if _, ok := words["סיסמה,"]; ok {
		t.Error("comma must not stick to a token")
	}

	if got := BaseRelevance(Tokenize("סיסמה"), "כדי לאפס סיסמה, פנו למנהל."); got != 1 {
		t.Errorf("punctuated candidate should still match, got %f", got)
	}
}

func TestWeightedScoreAccessBoost(t *testing.T) {
	e := NewEntry("password reset", CategoryFact, 1.0)
	base := 1.0

	s0 := WeightedScore(base, e)
	e.AccessCount = 3
	s3 := WeightedScore(base, e)

	if s0 != 1.0 {
		t.Errorf("fresh entry: expected 1.0, got %f", s0)
	}
	if s3 != 1.3 {
		t.Errorf("3 accesses: expected 1.3, got %f", s3)
	}
}

func TestRankWeightedOrderingAndTouch(t *testing.T) {
	low := NewEntry("password help", CategoryFact, 0.3)
	high := NewEntry("password help", CategoryFact, 0.9)
	miss := NewEntry("room service menu", CategoryFact, 1.0)

	ranked := rankWeighted("password", []*Entry{low, high, miss}, 5)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	if ranked[0] != high || ranked[1] != low {
		t.Errorf("expected high importance first")
	}
	if high.AccessCount != 1 || low.AccessCount != 1 {
		t.Errorf("returned entries should be touched")
	}
	if miss.AccessCount != 0 {
		t.Errorf("zero-score entry must not be touched")
	}
}

func TestRankWeightedStableTies(t *testing.T) {
	a := NewEntry("password", CategoryFact, 0.5)
	b := NewEntry("password", CategoryFact, 0.5)

	ranked := rankWeighted("password", []*Entry{a, b}, 2)
	if len(ranked) != 2 || ranked[0] != a || ranked[1] != b {
		t.Errorf("equal scores should keep insertion order")
	}
}

func TestRankWeightedSkipsExpired(t *testing.T) {
	e := NewEntry("password", CategoryFact, 1.0)
	past := time.Now().Add(-time.Hour)
	e.ExpiresAt = &past

	if got := rankWeighted("password", []*Entry{e}, 5); len(got) != 0 {
		t.Errorf("expired entry must be excluded, got %d results", len(got))
	}
}

func TestExtractTopics(t *testing.T) {
	topics := extractTopics("יש לי בעיה עם הזמנה של חדר")
	want := []string{"הזמנות", "חדרים", "תמיכה טכנית"}
	if len(topics) != len(want) {
		t.Fatalf("expected %v, got %v", want, topics)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("expected %v, got %v", want, topics)
			break
		}
	}

	if got := extractTopics("hello there"); len(got) != 0 {
		t.Errorf("neutral message should yield no topics, got %v", got)
	}
}

func TestAddInteractionTracksTopics(t *testing.T) {
	m := NewSessionMemory("s1", DefaultConfig())
	if err := m.AddInteraction("איך מפיקים דוח?", "ככה", nil); err != nil {
		t.Fatal(err)
	}
	if err := m.AddInteraction("עוד שאלה על דוח", "תשובה", nil); err != nil {
		t.Fatal(err)
	}

	stats := m.Stats()
	if stats.ShortTermCount != 2 {
		t.Errorf("expected 2 short-term entries, got %d", stats.ShortTermCount)
	}
	if len(stats.TopicsDiscussed) != 1 || stats.TopicsDiscussed[0] != "דוחות" {
		t.Errorf("expected deduplicated topic list [דוחות], got %v", stats.TopicsDiscussed)
	}
}

func TestConsolidation(t *testing.T) {
	m := NewSessionMemory("s1", DefaultConfig())
	for i := 0; i < 21; i++ {
		if err := m.AddInteraction(fmt.Sprintf("message %d", i), "reply", nil); err != nil {
			t.Fatal(err)
		}
	}

	stats := m.Stats()
	if stats.ShortTermCount != 10 {
		t.Errorf("expected short-term truncated to 10, got %d", stats.ShortTermCount)
	}
	// Interactions carry importance 0.5 and no accesses, so none qualify
	// for promotion.
	if stats.LongTermCount != 0 {
		t.Errorf("expected no promotions, got %d", stats.LongTermCount)
	}

	export := m.Export()
	last := export.ShortTerm[len(export.ShortTerm)-1]
	in, ok := DecodeInteraction(last.Content)
	if !ok || in.User != "message 20" {
		t.Errorf("most recent interaction must survive consolidation")
	}
}

func TestConsolidationPromotesImportant(t *testing.T) {
	m := NewSessionMemory("s1", DefaultConfig())
	for i := 0; i < 20; i++ {
		if err := m.AddInteraction(fmt.Sprintf("message %d", i), "reply", nil); err != nil {
			t.Fatal(err)
		}
	}
	// Raise one early entry above the promotion thresholds before the
	// next interaction triggers consolidation.
	m.mu.Lock()
	m.shortTerm[0].Importance = 0.9
	m.mu.Unlock()

	if err := m.AddInteraction("message 20", "reply", nil); err != nil {
		t.Fatal(err)
	}

	stats := m.Stats()
	if stats.LongTermCount != 1 {
		t.Errorf("expected 1 promoted entry, got %d", stats.LongTermCount)
	}
	if stats.ShortTermCount != 10 {
		t.Errorf("expected short-term truncated to 10, got %d", stats.ShortTermCount)
	}
}

func TestConsolidationRetainAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetainAll = true
	m := NewSessionMemory("s1", cfg)
	for i := 0; i < 21; i++ {
		if err := m.AddInteraction(fmt.Sprintf("message %d", i), "reply", nil); err != nil {
			t.Fatal(err)
		}
	}

	stats := m.Stats()
	if stats.ShortTermCount+stats.LongTermCount != 21 {
		t.Errorf("retain-all must not forget entries: short=%d long=%d",
			stats.ShortTermCount, stats.LongTermCount)
	}
}

func TestUpdateProfileAddsFact(t *testing.T) {
	m := NewSessionMemory("s1", DefaultConfig())
	m.UpdateProfile("language", "hebrew")

	stats := m.Stats()
	if stats.ProfileEntries != 1 {
		t.Errorf("expected 1 profile entry, got %d", stats.ProfileEntries)
	}
	if stats.LongTermCount != 1 {
		t.Errorf("profile update should add a long-term fact")
	}

	export := m.Export()
	fact := export.LongTerm[0]
	if fact.Importance != 0.8 {
		t.Errorf("profile fact importance: expected 0.8, got %f", fact.Importance)
	}
	if fact.Content != "User preference: language = hebrew" {
		t.Errorf("unexpected fact content %q", fact.Content)
	}
}

func TestRelevantMemories(t *testing.T) {
	m := NewSessionMemory("s1", DefaultConfig())
	m.AddFact("המלון מציע שירות חדרים", "", 0.9)
	m.AddFact("שעות קבלה 14:00", "", 0.5)
	if err := m.AddInteraction("מה לגבי שירות חדרים?", "זמין", nil); err != nil {
		t.Fatal(err)
	}

	got, err := m.RelevantMemories("שירות חדרים", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("expected matches")
	}
	if !strings.Contains(got[0], "שירות חדרים") {
		t.Errorf("top match should mention the query terms, got %q", got[0])
	}

	if _, err := m.RelevantMemories("x", -1); err == nil {
		t.Error("negative limit should error")
	}
}

func TestContextFormatting(t *testing.T) {
	m := NewSessionMemory("s1", DefaultConfig())
	for i := 0; i < 3; i++ {
		if err := m.AddInteraction(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), nil); err != nil {
			t.Fatal(err)
		}
	}

	ctx := m.Context(2)
	lines := strings.Split(ctx, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), ctx)
	}
	if lines[0] != "משתמש: q1" || lines[1] != "עוזר: a1" {
		t.Errorf("unexpected context head: %q %q", lines[0], lines[1])
	}
	if lines[2] != "משתמש: q2" || lines[3] != "עוזר: a2" {
		t.Errorf("unexpected context tail: %q %q", lines[2], lines[3])
	}

	export := m.Export()
	if export.ShortTerm[0].AccessCount != 0 {
		t.Errorf("entries outside the window must not be touched")
	}
	if export.ShortTerm[2].AccessCount != 1 {
		t.Errorf("included entries must be touched")
	}
}

func TestSummarize(t *testing.T) {
	m := NewSessionMemory("s1", DefaultConfig())
	if got := m.Summarize(); got != "לא היו שיחות בסשן זה" {
		t.Errorf("empty session summary: got %q", got)
	}

	if err := m.AddInteraction("שאלה על דוח", "תשובה", nil); err != nil {
		t.Fatal(err)
	}
	m.UpdateProfile("role", "manager")

	got := m.Summarize()
	if !strings.Contains(got, "סשן זה כלל 1 אינטראקציות") {
		t.Errorf("summary missing interaction count: %q", got)
	}
	if !strings.Contains(got, "דוחות") {
		t.Errorf("summary missing topics: %q", got)
	}
	if !strings.Contains(got, "פרופיל משתמש: 1 העדפות נשמרו.") {
		t.Errorf("summary missing profile count: %q", got)
	}
}

func TestNewEntryClampsImportance(t *testing.T) {
	if e := NewEntry("x", CategoryFact, 1.5); e.Importance != 1 {
		t.Errorf("expected clamp to 1, got %f", e.Importance)
	}
	if e := NewEntry("x", CategoryFact, -0.5); e.Importance != 0 {
		t.Errorf("expected clamp to 0, got %f", e.Importance)
	}
}
