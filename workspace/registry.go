package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/oklog/ulid/v2"
)

var ErrUnknownWorkspace = errors.New("unknown workspace")

// Factory builds the stores of workspace id. Whatever it persists must be
// keyed by id so that a rebuilt workspace finds its earlier state.
type Factory func(id string) *Workspace

// Registry keeps live workspaces in memory and rebuilds evicted ones on
// demand
type Registry struct {
	mu      sync.Mutex
	factory Factory
	items   map[string]*Workspace
	nowFn   func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		items:   make(map[string]*Workspace),
		nowFn:   time.Now,
	}
}

// Open returns the live workspace id, rebuilding and restoring it from
// storage when it is not in memory
func (r *Registry) Open(ctx context.Context, id string) (*Workspace, error) {
	if id == "" {
		return nil, ErrUnknownWorkspace
	}

	ws := r.getOrBuild(id)
	ws.restoreFirst(ctx)
	ws.Touch(r.nowFn())
	return ws, nil
}

// New creates and registers a workspace under a fresh id
func (r *Registry) New(ctx context.Context) *Workspace {
	ws := r.Prepare()
	r.Adopt(ws)
	return ws
}

// Prepare builds a workspace under a fresh id without registering it, so
// callers can discard it when sign in fails
func (r *Registry) Prepare() *Workspace {
	ws := r.factory(ulid.Make().String())
	// nothing can be persisted under an id minted just now
	ws.markRestored()
	return ws
}

// Adopt registers a prepared workspace
func (r *Registry) Adopt(ws *Workspace) {
	ws.Touch(r.nowFn())

	r.mu.Lock()
	r.items[ws.ID] = ws
	r.mu.Unlock()

	log.WithField("workspace", ws.ID).Info("Workspace Created")
}

// Sweep drops workspaces untouched for idle and returns how many went.
// Their persisted state stays behind for Open to pick up.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.nowFn().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, ws := range r.items {
		if ws.LastUsed().Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Each calls fn for a snapshot of the live workspaces
func (r *Registry) Each(fn func(*Workspace)) {
	r.mu.Lock()
	list := make([]*Workspace, 0, len(r.items))
	for _, ws := range r.items {
		list = append(list, ws)
	}
	r.mu.Unlock()

	for _, ws := range list {
		fn(ws)
	}
}

func (r *Registry) getOrBuild(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.items[id]; ok {
		return ws
	}
	ws := r.factory(id)
	r.items[id] = ws
	return ws
}
