// Package auth abstracts the authentication collaborator. The real sign-in
// flow lives in an external identity service; this package only defines
// the lifecycle the rest of the app depends on, plus a static provider for
// deployments that run without one.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session identifies the current practice session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider is the injected authentication collaborator. Implementations
// must be safe for concurrent use.
type Provider interface {
	// Init prepares the provider (e.g. restores an existing session).
	Init(ctx context.Context) error
	// CurrentSession returns the active session.
	CurrentSession(ctx context.Context) (Session, error)
	// OnSessionChange registers a callback invoked whenever the session
	// changes. The returned function unsubscribes it.
	OnSessionChange(fn func(Session)) (unsubscribe func())
	// Teardown releases provider resources. No callbacks fire afterwards.
	Teardown(ctx context.Context) error
}

// StaticProvider serves a single fixed session for the process lifetime.
// It stands in when no identity service is configured.
type StaticProvider struct {
	mu      sync.Mutex
	session Session
	subs    map[int]func(Session)
	nextSub int
	done    bool
}

// NewStaticProvider returns a provider with the given session id. An empty
// id gets a generated one.
func NewStaticProvider(id string) *StaticProvider {
	if id == "" {
		id = uuid.NewString()
	}
	return &StaticProvider{
		session: Session{ID: id, CreatedAt: time.Now()},
		subs:    make(map[int]func(Session)),
	}
}

func (p *StaticProvider) Init(ctx context.Context) error { return nil }

func (p *StaticProvider) CurrentSession(ctx context.Context) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, nil
}

func (p *StaticProvider) OnSessionChange(fn func(Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

func (p *StaticProvider) Teardown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	p.subs = make(map[int]func(Session))
	return nil
}

// Rotate replaces the session id and notifies subscribers. Used by tests
// and by deployments that re-key sessions without a full restart.
func (p *StaticProvider) Rotate(id string) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.session = Session{ID: id, CreatedAt: time.Now()}
	session := p.session
	subs := make([]func(Session), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}
