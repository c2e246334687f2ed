package finchat

import (
	"testing"
	"time"
)

func newTestStore(maxIdle time.Duration) (*sessionStore, *time.Time) {
	store := newSessionStore(maxIdle)
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	return store, &current
}

func TestSessionCreateSeedsGreeting(t *testing.T) {
	store, _ := newTestStore(0)
	session := store.Create("Hi Alex, I'm your assistant. How can I help you today?")

	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	if len(session.Transcript) != 1 {
		t.Fatalf("transcript length = %d", len(session.Transcript))
	}
	entry := session.Transcript[0]
	if entry.Sender != SenderBot {
		t.Errorf("sender = %q", entry.Sender)
	}
	if entry.Message != "Hi Alex, I'm your assistant. How can I help you today?" {
		t.Errorf("greeting = %q", entry.Message)
	}
}

func TestSessionCreateWithoutGreeting(t *testing.T) {
	store, _ := newTestStore(0)
	session := store.Create("")
	if len(session.Transcript) != 0 {
		t.Fatalf("transcript length = %d", len(session.Transcript))
	}
}

func TestSessionGetUnknown(t *testing.T) {
	store, _ := newTestStore(0)
	_, err := store.Get("nope")
	if !IsErrorCode(err, ErrCodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}

func TestSessionAppendExchange(t *testing.T) {
	store, now := newTestStore(0)
	session := store.Create("hello")

	*now = now.Add(time.Minute)
	user, bot, err := store.AppendExchange(session.ID, "what is my name", "You're Alex.")
	if err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}
	if user.Sender != SenderUser || user.Message != "what is my name" {
		t.Errorf("user entry = %+v", user)
	}
	if bot.Sender != SenderBot || bot.Message != "You're Alex." {
		t.Errorf("bot entry = %+v", bot)
	}

	got, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Transcript) != 3 {
		t.Fatalf("transcript length = %d", len(got.Transcript))
	}
	// User entry always precedes its bot reply.
	if got.Transcript[1].Sender != SenderUser || got.Transcript[2].Sender != SenderBot {
		t.Errorf("transcript order = %q then %q", got.Transcript[1].Sender, got.Transcript[2].Sender)
	}
	if !got.LastActiveAt.Equal(*now) {
		t.Errorf("last active = %v, want %v", got.LastActiveAt, *now)
	}

	if _, _, err := store.AppendExchange("nope", "x", "y"); !IsErrorCode(err, ErrCodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}

func TestSessionDelete(t *testing.T) {
	store, _ := newTestStore(0)
	session := store.Create("hello")

	if !store.Delete(session.ID) {
		t.Fatal("expected delete to succeed")
	}
	if store.Delete(session.ID) {
		t.Fatal("expected second delete to fail")
	}
	if _, err := store.Get(session.ID); !IsErrorCode(err, ErrCodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND after delete, got %v", err)
	}
}

func TestSessionPruneIdle(t *testing.T) {
	store, now := newTestStore(time.Hour)
	stale := store.Create("hello")

	*now = now.Add(2 * time.Hour)
	fresh := store.Create("hello")

	if _, err := store.Get(stale.ID); !IsErrorCode(err, ErrCodeSessionNotFound) {
		t.Fatalf("expected stale session pruned, got %v", err)
	}
	if _, err := store.Get(fresh.ID); err != nil {
		t.Fatalf("fresh session should survive: %v", err)
	}
}

func TestSessionListOrder(t *testing.T) {
	store, now := newTestStore(0)
	first := store.Create("hello")
	*now = now.Add(time.Minute)
	second := store.Create("hello")
	*now = now.Add(time.Minute)
	if _, _, err := store.AppendExchange(first.ID, "hi", "hello"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	summaries := store.List()
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d", len(summaries))
	}
	if summaries[0].ID != first.ID || summaries[1].ID != second.ID {
		t.Errorf("order = [%s %s], want first (just touched) before second", summaries[0].ID, summaries[1].ID)
	}
	if summaries[0].Messages != 3 {
		t.Errorf("messages = %d", summaries[0].Messages)
	}
	if summaries[0].HasDocument {
		t.Error("did not expect a document")
	}
}

func TestSessionSnapshotIsolation(t *testing.T) {
	store, _ := newTestStore(0)
	session := store.Create("hello")

	// Mutating a returned copy must not leak into the store.
	session.Transcript[0].Message = "tampered"
	got, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Transcript[0].Message != "hello" {
		t.Errorf("store transcript mutated: %q", got.Transcript[0].Message)
	}
}

func TestSessionSetDocument(t *testing.T) {
	store, _ := newTestStore(0)
	session := store.Create("hello")

	doc := &Document{Name: "report.pdf", Text: "quarterly results", Pages: 3, Chars: 17}
	if err := store.SetDocument(session.ID, doc); err != nil {
		t.Fatalf("SetDocument: %v", err)
	}

	got, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Document == nil || got.Document.Name != "report.pdf" {
		t.Fatalf("document = %+v", got.Document)
	}

	summaries := store.List()
	if len(summaries) != 1 || !summaries[0].HasDocument {
		t.Errorf("summary should flag the document: %+v", summaries)
	}

	if err := store.SetDocument("nope", doc); !IsErrorCode(err, ErrCodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}
