package debounce

import (
	"sync"
	"time"
)

const DefaultDelay = 250 * time.Millisecond

// Debouncer collapses bursts of Notify calls per id into a single call of
// fn, made once no Notify for that id has arrived for the full delay. fn
// receives the argument of the last Notify. Ids are independent.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(id string, arg T)

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pendingCall
}

type pendingCall struct {
	timer *time.Timer
	seq   uint64
}

func New[T any](delay time.Duration, fn func(id string, arg T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{
		delay:   delay,
		fn:      fn,
		pending: make(map[string]*pendingCall),
	}
}

func (d *Debouncer[T]) Notify(id string, arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[id]; ok {
		p.timer.Stop()
	}

	d.seq++
	seq := d.seq
	p := &pendingCall{seq: seq}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(id, seq, arg) })
	d.pending[id] = p
}

// fire runs fn unless the call was superseded or cancelled after the timer
// had already expired.
func (d *Debouncer[T]) fire(id string, seq uint64, arg T) {
	d.mu.Lock()
	p, ok := d.pending[id]
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, id)
	d.mu.Unlock()

	d.fn(id, arg)
}

func (d *Debouncer[T]) Cancel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[id]; ok {
		p.timer.Stop()
		delete(d.pending, id)
	}
}

// Stop cancels every pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, id)
	}
}

func (d *Debouncer[T]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
