package hover

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kdimtricp/hoverlabel/internal/cache"
	"github.com/kdimtricp/hoverlabel/internal/coordinator"
	"github.com/kdimtricp/hoverlabel/internal/debounce"
	"github.com/kdimtricp/hoverlabel/internal/feedback"
	"github.com/kdimtricp/hoverlabel/internal/locator"
	"github.com/kdimtricp/hoverlabel/internal/logging"
	"github.com/kdimtricp/hoverlabel/internal/models"
	"github.com/kdimtricp/hoverlabel/internal/overlay"
)

type Session struct {
	ID        string
	PageURL   string
	CreatedAt time.Time

	service     *Service
	cache       *cache.VerdictCache
	coordinator *coordinator.Coordinator
	tracker     *feedback.Tracker
	overlays    *overlay.Registry
	debouncer   *debounce.Debouncer[locator.Target]
	closed      atomic.Bool
}

func newSession(id, pageURL string, s *Service) *Session {
	c := cache.New(s.config.CacheCapacity)
	session := &Session{
		ID:          id,
		PageURL:     pageURL,
		CreatedAt:   time.Now(),
		service:     s,
		cache:       c,
		coordinator: coordinator.New(c, s.encoder, s.classifier, s.config.Coordinator),
		tracker:     feedback.NewTracker(s.sink),
		overlays:    overlay.NewRegistry(),
	}
	session.debouncer = debounce.New(s.config.Debounce, session.fire)
	return session
}

func (s *Session) active() bool {
	return s.service.Enabled() && !s.closed.Load()
}

// Notify schedules t to be handled once triggers for it go quiet.
func (s *Session) Notify(t locator.Target) error {
	if !s.service.Enabled() {
		return ErrDisabled
	}
	if t.BaseURL == "" {
		t.BaseURL = s.PageURL
	}

	s.debouncer.Notify(t.ID, t)
	return nil
}

func (s *Session) fire(targetID string, t locator.Target) {
	state, _, err := s.Handle(context.Background(), t)
	if err != nil {
		logging.Debug("debounced trigger dropped", "session", s.ID, "target", targetID, "error", err)
		return
	}
	logging.Debug("trigger handled", "session", s.ID, "target", targetID,
		"source", t.Source, "state", state.Kind)
}

// Handle runs one trigger through locate, coordinate and render. It blocks
// while a classification it started is outstanding.
func (s *Session) Handle(ctx context.Context, t locator.Target) (models.DisplayState, overlay.Instruction, error) {
	if !s.service.Enabled() {
		return models.DisplayState{}, overlay.Instruction{}, ErrDisabled
	}
	if t.BaseURL == "" {
		t.BaseURL = s.PageURL
	}

	state := models.NoImage()
	if located, ok := locator.Locate(t); ok {
		state = s.coordinator.Handle(ctx, t.ID, located.Key)
	}

	in := overlay.ForState(state)
	if in.Feedback && s.tracker.Submitted(state.Key) {
		in.Feedback = false
	}

	if !s.active() {
		return state, in, ErrDisabled
	}
	s.overlays.Render(t.ID, in)
	return state, in, nil
}

// Clear removes the target's overlay and drops any trigger still waiting
// for it.
func (s *Session) Clear(targetID string) {
	s.debouncer.Cancel(targetID)
	s.overlays.Clear(targetID)
}

// SubmitFeedback records a vote on the cached verdict for imageURL. It
// reports false when a vote for the image was already recorded.
func (s *Session) SubmitFeedback(imageURL string, vote models.Vote) (bool, error) {
	if !s.service.Enabled() {
		return false, ErrDisabled
	}

	key, err := models.CanonicalImageKey(imageURL, s.PageURL)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	v, ok := s.cache.Get(key)
	if !ok {
		return false, ErrNoVerdict
	}

	if !s.tracker.Submit(key, v, vote) {
		return false, nil
	}

	for target, in := range s.overlays.All() {
		if in.ImageURL == string(key) && in.Feedback {
			in.Feedback = false
			s.overlays.Render(target, in)
		}
	}

	logging.Info("feedback submitted", "session", s.ID, "image", key, "vote", vote)
	return true, nil
}

func (s *Session) Overlays() map[string]overlay.Instruction {
	return s.overlays.All()
}

func (s *Session) Overlay(targetID string) (overlay.Instruction, bool) {
	return s.overlays.Get(targetID)
}

type Stats struct {
	CachedVerdicts  int `json:"cached_verdicts"`
	CacheCapacity   int `json:"cache_capacity"`
	InFlight        int `json:"in_flight"`
	PendingTriggers int `json:"pending_triggers"`
	Overlays        int `json:"overlays"`
}

func (s *Session) Stats() Stats {
	return Stats{
		CachedVerdicts:  s.cache.Len(),
		CacheCapacity:   s.cache.Capacity(),
		InFlight:        s.coordinator.InFlightCount(),
		PendingTriggers: s.debouncer.Pending(),
		Overlays:        s.overlays.Len(),
	}
}

func (s *Session) close() {
	s.closed.Store(true)
	s.debouncer.Stop()
	s.overlays.ClearAll()
	s.cache.Reset()
	s.tracker.Reset()
}
