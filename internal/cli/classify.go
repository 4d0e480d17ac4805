package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/hoverlabel/internal/cache"
	"github.com/kdimtricp/hoverlabel/internal/coordinator"
	"github.com/kdimtricp/hoverlabel/internal/models"
	"github.com/kdimtricp/hoverlabel/internal/overlay"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <image-url>",
		Short: "Classify a single image and print its label",
		Args:  cobra.ExactArgs(1),
		RunE:  runClassify,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	key, err := models.CanonicalImageKey(args[0], "")
	if err != nil {
		return err
	}

	c := coordinator.New(cache.New(1), newEncoder(cfg), newClassifier(cfg), coordinatorConfig(cfg))
	state := c.Handle(cmd.Context(), "cli", key)

	out := cmd.OutOrStdout()
	switch state.Kind {
	case models.StateLabeled:
		in := overlay.ForState(state)
		fmt.Fprintf(out, "Image:      %s\n", key)
		fmt.Fprintf(out, "Label:      %s\n", state.Verdict.Label)
		fmt.Fprintf(out, "Confidence: %.1f%%\n", state.Verdict.Confidence*100)
		fmt.Fprintf(out, "Category:   %s\n", state.Verdict.Category())
		fmt.Fprintf(out, "Overlay:    %s\n", in.Text)
		return nil
	case models.StateSkipped:
		fmt.Fprintf(out, "Skipped: %s is smaller than %dx%d\n", key, cfg.MinImageDimension, cfg.MinImageDimension)
		return nil
	case models.StateFailed:
		return fmt.Errorf("classification failed: %w", state.Err)
	default:
		return fmt.Errorf("unexpected state %s", state.Kind)
	}
}
