package callbacks

import (
	"slices"
	"sync"
)

// Callback is a set of named listeners. Notify calls them in the order they
// were added; adding an existing name replaces the listener in place.
type Callback[V any] struct {
	mx    sync.RWMutex
	names []string
	fns   map[string]func(V)
}

func New[V any]() *Callback[V] {
	return &Callback[V]{
		fns: make(map[string]func(V)),
	}
}

func (p *Callback[V]) Add(name string, fn func(msg V)) {
	p.mx.Lock()
	defer p.mx.Unlock()

	if _, ok := p.fns[name]; !ok {
		p.names = append(p.names, name)
	}

	p.fns[name] = fn
}

func (p *Callback[V]) Remove(name string) bool {
	p.mx.Lock()
	defer p.mx.Unlock()

	if _, ok := p.fns[name]; !ok {
		return false
	}

	delete(p.fns, name)
	p.names = slices.DeleteFunc(p.names, func(s string) bool { return s == name })

	return true
}

func (p *Callback[V]) Len() int {
	p.mx.RLock()
	defer p.mx.RUnlock()

	return len(p.names)
}

// Notify runs listeners on the caller's goroutine without holding the lock,
// so a listener may add or remove listeners.
func (p *Callback[V]) Notify(msg V) {
	p.mx.RLock()
	fns := make([]func(V), 0, len(p.names))

	for _, name := range p.names {
		fns = append(fns, p.fns[name])
	}
	p.mx.RUnlock()

	for _, fn := range fns {
		fn(msg)
	}
}
