package models

import (
	"fmt"
	"net/url"
	"strings"
)

type ImageKey string

type Label string

const (
	LabelReal        Label = "Real"
	LabelAIGenerated Label = "AI-generated"
)

type Category string

const (
	CategoryAIGenerated   Category = "ai_generated"
	CategoryMaybeAI       Category = "maybe_ai"
	CategoryRealConfident Category = "real_confident"
)

const (
	// DecisionThreshold is the classifier's Real/AI cut-off.
	DecisionThreshold = 0.5
	// MaybeAICeiling bounds the low-confidence Real band shown as MaybeAI.
	MaybeAICeiling = 0.6
)

// RawVerdict is the classifier's answer before normalization.
type RawVerdict struct {
	Label      Label
	Confidence float64
}

type Verdict struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Normalize turns a raw classifier answer into the stored verdict. A Real
// answer below the decision threshold is reported as AI-generated.
func Normalize(raw RawVerdict) Verdict {
	if raw.Label == LabelReal && raw.Confidence < DecisionThreshold {
		return Verdict{Label: LabelAIGenerated, Confidence: raw.Confidence}
	}
	return Verdict{Label: raw.Label, Confidence: raw.Confidence}
}

func (v Verdict) Category() Category {
	if v.Label != LabelReal || v.Confidence < DecisionThreshold {
		return CategoryAIGenerated
	}
	if v.Confidence <= MaybeAICeiling {
		return CategoryMaybeAI
	}
	return CategoryRealConfident
}

// ParseLabel accepts the label spellings the model server has used.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real":
		return LabelReal, true
	case "ai", "ai-generated", "ai_generated", "fake":
		return LabelAIGenerated, true
	}
	return "", false
}

// CanonicalImageKey resolves rawURL against base and strips the parts that
// do not identify the image (fragment, scheme/host case).
func CanonicalImageKey(rawURL, base string) (ImageKey, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("empty image url")
	}
	if strings.HasPrefix(rawURL, "data:") {
		return ImageKey(rawURL), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid image url %q: %w", rawURL, err)
	}
	if base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("invalid base url %q: %w", base, err)
		}
		u = b.ResolveReference(u)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("image url %q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return ImageKey(u.String()), nil
}
