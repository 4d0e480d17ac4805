package feedback

import (
	"sync"

	"github.com/kdimtricp/hoverlabel/internal/models"
)

// Sink records a user's vote. Send is fire-and-forget.
type Sink interface {
	Send(key models.ImageKey, v models.Verdict, vote models.Vote)
}

// Tracker forwards at most one vote per image to its sink.
type Tracker struct {
	sink Sink

	mu     sync.Mutex
	ledger map[models.ImageKey]struct{}
}

func NewTracker(sink Sink) *Tracker {
	return &Tracker{
		sink:   sink,
		ledger: make(map[models.ImageKey]struct{}),
	}
}

// Submit reports whether this call performed the submission.
func (t *Tracker) Submit(key models.ImageKey, v models.Verdict, vote models.Vote) bool {
	t.mu.Lock()
	if _, ok := t.ledger[key]; ok {
		t.mu.Unlock()
		return false
	}
	t.ledger[key] = struct{}{}
	t.mu.Unlock()

	t.sink.Send(key, v, vote)
	return true
}

func (t *Tracker) Submitted(key models.ImageKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ledger[key]
	return ok
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger = make(map[models.ImageKey]struct{})
}
