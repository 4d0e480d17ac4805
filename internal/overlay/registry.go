package overlay

import "sync"

type Renderer interface {
	Render(target string, in Instruction)
	Clear(target string)
	ClearAll()
}

// Registry is an in-memory Renderer. The extension reads it back through
// the API and paints whatever it holds; rendering the same instruction
// twice leaves a single overlay.
type Registry struct {
	mu       sync.RWMutex
	overlays map[string]Instruction
}

func NewRegistry() *Registry {
	return &Registry{overlays: make(map[string]Instruction)}
}

func (r *Registry) Render(target string, in Instruction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if in.Kind == KindNone {
		delete(r.overlays, target)
		return
	}
	r.overlays[target] = in
}

func (r *Registry) Clear(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overlays, target)
}

func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays = make(map[string]Instruction)
}

func (r *Registry) Get(target string) (Instruction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.overlays[target]
	return in, ok
}

func (r *Registry) All() map[string]Instruction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Instruction, len(r.overlays))
	for k, v := range r.overlays {
		out[k] = v
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.overlays)
}
