package roles

import (
	"context"
	"log/slog"
	"sync"
)

// Registry hands out one Resolver per signed-in login, creating it on
// first use and keeping its role subscription running until Close.
type Registry struct {
	source Source
	store  SelectionStore
	log    *slog.Logger

	mu        sync.Mutex
	resolvers map[string]*Resolver
	cancels   map[string]context.CancelFunc
}

func NewRegistry(source Source, store SelectionStore, log *slog.Logger) *Registry {
	return &Registry{
		source:    source,
		store:     store,
		log:       log,
		resolvers: make(map[string]*Resolver),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// ForLogin returns the login's resolver, resolving roles and starting the
// subscription consumer on first use.
func (g *Registry) ForLogin(ctx context.Context, login string) (*Resolver, error) {
	g.mu.Lock()
	if r, ok := g.resolvers[login]; ok {
		g.mu.Unlock()
		return r, nil
	}
	g.mu.Unlock()

	r := NewResolver(login, g.source, g.store, g.log)
	if _, err := r.Resolve(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.resolvers[login]; ok {
		return existing, nil
	}
	g.resolvers[login] = r

	runCtx, cancel := context.WithCancel(context.Background())
	g.cancels[login] = cancel
	go func() {
		if err := r.Run(runCtx); err != nil && runCtx.Err() == nil {
			g.log.Warn("role subscription ended", "login", login, "error", err)
		}
	}()
	return r, nil
}

// Close stops every running subscription consumer.
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for login, cancel := range g.cancels {
		cancel()
		delete(g.cancels, login)
	}
}
