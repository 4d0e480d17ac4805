// Package overlay maps display states to render instructions and keeps the
// overlays currently shown per target.
package overlay

import (
	"fmt"

	"github.com/kdimtricp/hoverlabel/internal/models"
)

type Kind string

const (
	KindNone        Kind = "none"
	KindLoading     Kind = "loading"
	KindLabel       Kind = "label"
	KindUnavailable Kind = "unavailable"
)

const (
	ColorAI         = "rgba(255, 0, 0, 0.85)"
	ColorMaybeAI    = "rgba(255, 165, 0, 0.85)"
	ColorReal       = "rgba(0, 128, 0, 0.85)"
	ColorNeutral    = "rgba(128, 128, 128, 0.85)"
	textMaybeAI     = "Maybe-AI"
	textLoading     = "Analyzing…"
	textUnavailable = "Unavailable"
)

type Instruction struct {
	Kind       Kind            `json:"kind"`
	ImageURL   string          `json:"image_url,omitempty"`
	Text       string          `json:"text,omitempty"`
	Color      string          `json:"color,omitempty"`
	Category   models.Category `json:"category,omitempty"`
	Label      models.Label    `json:"label,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Feedback   bool            `json:"feedback"`
}

// ForState is the overlay state machine. It holds no state of its own.
func ForState(s models.DisplayState) Instruction {
	switch s.Kind {
	case models.StateLoading:
		return Instruction{
			Kind:     KindLoading,
			ImageURL: string(s.Key),
			Text:     textLoading,
			Color:    ColorNeutral,
		}
	case models.StateLabeled:
		return labeled(s.Key, s.Verdict)
	case models.StateFailed:
		return Instruction{
			Kind:     KindUnavailable,
			ImageURL: string(s.Key),
			Text:     textUnavailable,
			Color:    ColorNeutral,
		}
	default:
		return Instruction{Kind: KindNone, ImageURL: string(s.Key)}
	}
}

func labeled(key models.ImageKey, v models.Verdict) Instruction {
	in := Instruction{
		Kind:       KindLabel,
		ImageURL:   string(key),
		Category:   v.Category(),
		Label:      v.Label,
		Confidence: v.Confidence,
		Feedback:   true,
	}

	switch in.Category {
	case models.CategoryMaybeAI:
		in.Text = textMaybeAI
		in.Color = ColorMaybeAI
	case models.CategoryRealConfident:
		in.Text = labelText(models.LabelReal, v.Confidence)
		in.Color = ColorReal
	default:
		in.Text = labelText(models.LabelAIGenerated, v.Confidence)
		in.Color = ColorAI
	}
	return in
}

func labelText(label models.Label, confidence float64) string {
	return fmt.Sprintf("🧠 %s (%.1f%%)", label, confidence*100)
}
