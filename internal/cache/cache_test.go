package cache

import (
	"fmt"
	"testing"

	"github.com/kdimtricp/hoverlabel/internal/models"
)

func key(i int) models.ImageKey {
	return models.ImageKey(fmt.Sprintf("https://x/%d.jpg", i))
}

func TestVerdictCache_FIFOEviction(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		extra    int
	}{
		{name: "one over", capacity: 3, extra: 1},
		{name: "many over", capacity: 5, extra: 7},
		{name: "default capacity", capacity: 0, extra: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.capacity)
			n := c.Capacity()
			total := n + tt.extra

			for i := 0; i < total; i++ {
				c.Put(key(i), models.Verdict{Label: models.LabelReal, Confidence: 0.9})
				// Reading the oldest entries must not keep them alive.
				c.Get(key(0))
				c.Has(key(1))
			}

			if c.Len() != n {
				t.Fatalf("expected %d entries, got %d", n, c.Len())
			}

			keys := c.Keys()
			for i, k := range keys {
				if want := key(tt.extra + i); k != want {
					t.Errorf("position %d: expected %s, got %s", i, want, k)
				}
			}

			for i := 0; i < tt.extra; i++ {
				if c.Has(key(i)) {
					t.Errorf("expected %s to be evicted", key(i))
				}
			}
		})
	}
}

func TestVerdictCache_GetDoesNotRefresh(t *testing.T) {
	c := New(2)
	c.Put(key(1), models.Verdict{Label: models.LabelReal, Confidence: 0.7})
	c.Put(key(2), models.Verdict{Label: models.LabelReal, Confidence: 0.7})

	if _, ok := c.Get(key(1)); !ok {
		t.Fatal("expected key 1 to be cached")
	}

	c.Put(key(3), models.Verdict{Label: models.LabelAIGenerated, Confidence: 0.2})

	if c.Has(key(1)) {
		t.Error("key 1 was read but should still be evicted first")
	}
	if !c.Has(key(2)) || !c.Has(key(3)) {
		t.Error("expected keys 2 and 3 to remain")
	}
}

func TestVerdictCache_OverwriteKeepsPosition(t *testing.T) {
	c := New(2)
	c.Put(key(1), models.Verdict{Label: models.LabelReal, Confidence: 0.7})
	c.Put(key(2), models.Verdict{Label: models.LabelReal, Confidence: 0.7})
	c.Put(key(1), models.Verdict{Label: models.LabelAIGenerated, Confidence: 0.1})

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}

	v, _ := c.Get(key(1))
	if v.Label != models.LabelAIGenerated {
		t.Errorf("expected overwritten label, got %s", v.Label)
	}

	c.Put(key(3), models.Verdict{Label: models.LabelReal, Confidence: 0.9})
	if c.Has(key(1)) {
		t.Error("overwrite must not move key 1 to the back")
	}
}

func TestVerdictCache_Reset(t *testing.T) {
	c := New(4)
	c.Put(key(1), models.Verdict{Label: models.LabelReal, Confidence: 0.7})
	c.Reset()

	if c.Len() != 0 || c.Has(key(1)) {
		t.Error("expected empty cache after reset")
	}
}
