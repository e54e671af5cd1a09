package service

import (
	"context"
	"sync"
)

// Surface identifies one UI surface whose requests supersede each other.
type Surface string

const (
	SurfaceDashboard  Surface = "dashboard"
	SurfacePrediction Surface = "prediction"
	SurfaceChat       Surface = "chat"
)

type generationKey struct {
	session string
	surface Surface
}

type generation struct {
	id     uint64
	cancel context.CancelFunc
}

// GenerationTracker hands out request-generation tokens per session and
// surface. Beginning a request cancels the one it supersedes.
type GenerationTracker struct {
	mu     sync.Mutex
	next   uint64
	active map[generationKey]generation
}

// NewGenerationTracker creates an empty tracker.
func NewGenerationTracker() *GenerationTracker {
	return &GenerationTracker{active: make(map[generationKey]generation)}
}

// Ticket is the token of one in-flight request.
type Ticket struct {
	tracker *GenerationTracker
	key     generationKey
	id      uint64
	cancel  context.CancelFunc // set only for untracked tickets
}

// Begin starts a new generation for (session, surface) and returns a context
// that is cancelled when a newer generation begins or the ticket is released.
// An empty session is anonymous: its requests are never superseded.
func (t *GenerationTracker) Begin(ctx context.Context, session string, surface Surface) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	if session == "" {
		return ctx, Ticket{cancel: cancel}
	}
	key := generationKey{session: session, surface: surface}

	t.mu.Lock()
	t.next++
	id := t.next
	if prev, ok := t.active[key]; ok {
		prev.cancel()
	}
	t.active[key] = generation{id: id, cancel: cancel}
	t.mu.Unlock()

	return ctx, Ticket{tracker: t, key: key, id: id}
}

// Current reports whether no newer generation has begun for the ticket's surface.
func (tk Ticket) Current() bool {
	if tk.tracker == nil {
		return true
	}
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	g, ok := tk.tracker.active[tk.key]
	return ok && g.id == tk.id
}

// Release cancels the ticket's context and forgets it if still current.
// Safe to call more than once.
func (tk Ticket) Release() {
	if tk.tracker == nil {
		tk.cancel()
		return
	}
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	g, ok := tk.tracker.active[tk.key]
	if ok && g.id == tk.id {
		g.cancel()
		delete(tk.tracker.active, tk.key)
	}
}

// InFlight returns the number of surfaces with an active generation.
func (t *GenerationTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
