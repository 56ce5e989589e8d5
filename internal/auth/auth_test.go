package auth

import (
	"context"
	"testing"
)

func TestStaticProviderSession(t *testing.T) {
	p := NewStaticProvider("sess-1")
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	s, err := p.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if s.ID != "sess-1" {
		t.Errorf("expected session id sess-1, got %q", s.ID)
	}
	if s.CreatedAt.IsZero() {
		t.Error("expected creation timestamp")
	}
}

func TestStaticProviderGeneratesID(t *testing.T) {
	p := NewStaticProvider("")
	s, _ := p.CurrentSession(context.Background())
	if s.ID == "" {
		t.Error("expected generated session id")
	}

	q := NewStaticProvider("")
	s2, _ := q.CurrentSession(context.Background())
	if s.ID == s2.ID {
		t.Error("expected distinct generated ids")
	}
}

func TestOnSessionChange(t *testing.T) {
	p := NewStaticProvider("a")

	var got []string
	unsub := p.OnSessionChange(func(s Session) {
		got = append(got, s.ID)
	})

	p.Rotate("b")
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected callback with id b, got %v", got)
	}

	unsub()
	p.Rotate("c")
	if len(got) != 1 {
		t.Errorf("expected no callback after unsubscribe, got %v", got)
	}
}

func TestTeardownStopsCallbacks(t *testing.T) {
	p := NewStaticProvider("a")

	called := false
	p.OnSessionChange(func(Session) { called = true })

	if err := p.Teardown(context.Background()); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	p.Rotate("b")
	if called {
		t.Error("no callbacks may fire after teardown")
	}
}
