// Package coordinator decides, for each detected image, whether to reuse a
// cached verdict, report an in-flight classification, skip the image, or
// classify it.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kdimtricp/hoverlabel/internal/cache"
	"github.com/kdimtricp/hoverlabel/internal/logging"
	"github.com/kdimtricp/hoverlabel/internal/models"
)

const (
	DefaultMinDimension    = 100
	DefaultClassifyTimeout = 10 * time.Second
)

type Encoder interface {
	Encode(ctx context.Context, imageURL string) (*models.Payload, error)
}

type Classifier interface {
	Classify(ctx context.Context, payload *models.Payload) (models.RawVerdict, error)
}

type Config struct {
	MinDimension    int
	ClassifyTimeout time.Duration
}

type Coordinator struct {
	cache        *cache.VerdictCache
	encoder      Encoder
	classifier   Classifier
	minDimension int
	timeout      time.Duration

	mu       sync.Mutex
	inFlight map[models.ImageKey]struct{}
}

func New(c *cache.VerdictCache, enc Encoder, cls Classifier, config Config) *Coordinator {
	if config.MinDimension <= 0 {
		config.MinDimension = DefaultMinDimension
	}
	if config.ClassifyTimeout <= 0 {
		config.ClassifyTimeout = DefaultClassifyTimeout
	}

	return &Coordinator{
		cache:        c,
		encoder:      enc,
		classifier:   cls,
		minDimension: config.MinDimension,
		timeout:      config.ClassifyTimeout,
		inFlight:     make(map[models.ImageKey]struct{}),
	}
}

// Handle resolves key to a display state. It blocks while a classification
// it started is outstanding. The classification is detached from ctx's
// cancellation: once dispatched it runs to completion or timeout.
func (c *Coordinator) Handle(ctx context.Context, target string, key models.ImageKey) models.DisplayState {
	if key == "" {
		return models.NoImage()
	}

	if state, claimed := c.claim(key); !claimed {
		return state
	}
	defer c.release(key)

	ctx = context.WithoutCancel(ctx)

	payload, err := c.encoder.Encode(ctx, string(key))
	if err != nil {
		if !errors.Is(err, models.ErrFetch) {
			err = fmt.Errorf("%w: %w", models.ErrFetch, err)
		}
		logging.Warn("image encode failed", "target", target, "image", key, "error", err)
		return models.Failed(key, err)
	}

	if payload.Width < c.minDimension || payload.Height < c.minDimension {
		logging.Debug("image below size threshold, skipping", "image", key,
			"width", payload.Width, "height", payload.Height)
		return models.Skipped(key)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.classifier.Classify(cctx, payload)
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) && !errors.Is(err, models.ErrTimeout) {
			err = fmt.Errorf("%w after %s: %w", models.ErrTimeout, c.timeout, err)
		}
		logging.Warn("classification failed", "target", target, "image", key, "error", err)
		return models.Failed(key, err)
	}

	verdict := models.Normalize(raw)
	c.cache.Put(key, verdict)

	logging.Info("image classified", "image", key, "label", verdict.Label,
		"confidence", fmt.Sprintf("%.2f%%", verdict.Confidence*100))

	return models.Labeled(key, verdict)
}

// claim is the only place that reads the cache and the in-flight set
// together. It either returns the state to report or marks key in flight.
func (c *Coordinator) claim(key models.ImageKey) (models.DisplayState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache.Get(key); ok {
		return models.Labeled(key, v), false
	}
	if _, ok := c.inFlight[key]; ok {
		return models.Loading(key), false
	}

	c.inFlight[key] = struct{}{}
	return models.DisplayState{}, true
}

func (c *Coordinator) release(key models.ImageKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
}

func (c *Coordinator) InFlight(key models.ImageKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[key]
	return ok
}

func (c *Coordinator) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}
