package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cgast/sgeval/pkg/scene"
)

// ApplyFunc checks preconditions of an action and applies its effects. args
// has exactly the handler's arity; char is the agent.
type ApplyFunc func(w *World, char *scene.Node, args []*scene.Node) error

// Handler implements one simulator action.
type Handler struct {
	Script      string
	Arity       int
	Description string
	Apply       ApplyFunc
}

// Registry holds action handlers keyed by script name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Returns an error if the script name is taken.
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[h.Script]; exists {
		return fmt.Errorf("handler already registered: %s", h.Script)
	}
	r.handlers[h.Script] = h
	return nil
}

// Resolve looks up a handler by script name.
func (r *Registry) Resolve(script string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[script]
	if !ok {
		return Handler{}, fmt.Errorf("no handler for action: %s", script)
	}
	return h, nil
}

// Names returns the registered script names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
