package overlay

import (
	"fmt"
	"testing"

	"github.com/kdimtricp/hoverlabel/internal/models"
)

func TestForState(t *testing.T) {
	const key = models.ImageKey("https://x/a.jpg")

	tests := []struct {
		name             string
		state            models.DisplayState
		expectedKind     Kind
		expectedText     string
		expectedColor    string
		expectedCategory models.Category
		expectFeedback   bool
	}{
		{
			name:         "no image",
			state:        models.NoImage(),
			expectedKind: KindNone,
		},
		{
			name:         "skipped",
			state:        models.Skipped(key),
			expectedKind: KindNone,
		},
		{
			name:          "loading",
			state:         models.Loading(key),
			expectedKind:  KindLoading,
			expectedText:  textLoading,
			expectedColor: ColorNeutral,
		},
		{
			name:          "failed shows neutral indicator",
			state:         models.Failed(key, models.ErrNetwork),
			expectedKind:  KindUnavailable,
			expectedText:  textUnavailable,
			expectedColor: ColorNeutral,
		},
		{
			name:             "ai generated",
			state:            models.Labeled(key, models.Verdict{Label: models.LabelAIGenerated, Confidence: 0.42}),
			expectedKind:     KindLabel,
			expectedText:     "🧠 AI-generated (42.0%)",
			expectedColor:    ColorAI,
			expectedCategory: models.CategoryAIGenerated,
			expectFeedback:   true,
		},
		{
			name:             "maybe ai",
			state:            models.Labeled(key, models.Verdict{Label: models.LabelReal, Confidence: 0.55}),
			expectedKind:     KindLabel,
			expectedText:     "Maybe-AI",
			expectedColor:    ColorMaybeAI,
			expectedCategory: models.CategoryMaybeAI,
			expectFeedback:   true,
		},
		{
			name:             "confident real",
			state:            models.Labeled(key, models.Verdict{Label: models.LabelReal, Confidence: 0.9}),
			expectedKind:     KindLabel,
			expectedText:     "🧠 Real (90.0%)",
			expectedColor:    ColorReal,
			expectedCategory: models.CategoryRealConfident,
			expectFeedback:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ForState(tt.state)
			if in.Kind != tt.expectedKind {
				t.Errorf("expected kind %s, got %s", tt.expectedKind, in.Kind)
			}
			if in.Text != tt.expectedText {
				t.Errorf("expected text %q, got %q", tt.expectedText, in.Text)
			}
			if in.Color != tt.expectedColor {
				t.Errorf("expected color %q, got %q", tt.expectedColor, in.Color)
			}
			if in.Category != tt.expectedCategory {
				t.Errorf("expected category %q, got %q", tt.expectedCategory, in.Category)
			}
			if in.Feedback != tt.expectFeedback {
				t.Errorf("expected feedback=%v, got %v", tt.expectFeedback, in.Feedback)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	label := ForState(models.Labeled("https://x/a.jpg", models.Verdict{Label: models.LabelReal, Confidence: 0.9}))

	t.Run("render is idempotent", func(t *testing.T) {
		r.Render("t1", label)
		r.Render("t1", label)
		if r.Len() != 1 {
			t.Errorf("expected 1 overlay, got %d", r.Len())
		}
		got, ok := r.Get("t1")
		if !ok || got != label {
			t.Errorf("expected stored instruction, got %+v", got)
		}
	})

	t.Run("none removes overlay", func(t *testing.T) {
		r.Render("t1", ForState(models.Skipped("https://x/a.jpg")))
		if _, ok := r.Get("t1"); ok {
			t.Error("expected overlay removed")
		}
	})

	t.Run("clear is unconditional", func(t *testing.T) {
		r.Clear("never-rendered")
		r.Render("t2", label)
		r.Clear("t2")
		if _, ok := r.Get("t2"); ok {
			t.Error("expected overlay cleared")
		}
	})

	t.Run("clear all", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			r.Render(fmt.Sprintf("t%d", i), label)
		}
		r.ClearAll()
		if r.Len() != 0 {
			t.Errorf("expected no overlays, got %d", r.Len())
		}
	})
}
