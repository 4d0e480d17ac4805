package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kdimtricp/hoverlabel/internal/config"
	"github.com/kdimtricp/hoverlabel/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	vp      = viper.New()
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hoverlabel",
		Short: "Labels hovered web images as real or AI-generated",
		Long: `hoverlabel is the local companion daemon for the hover-label browser
extension. The extension reports hovered elements; hoverlabel finds the
image, asks the local model server for a Real/AI verdict, caches it and
hands back the overlay to draw.

Flow:
  1. Triggers are debounced per element
  2. The element's image is located, fetched and encoded
  3. The model server classifies it once; later hovers hit the cache
  4. Users can vote on a label once per image`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/hoverlabel/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db-path", "./hoverlabel.db", "sqlite feedback database")
	rootCmd.PersistentFlags().String("classifier-url", "http://127.0.0.1:5000/predict", "model server predict endpoint")

	vp.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	vp.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db-path"))
	vp.BindPFlag("classifier_url", rootCmd.PersistentFlags().Lookup("classifier-url"))

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newFeedbackCmd())
	rootCmd.AddCommand(newMigrateCmd())

	return rootCmd
}

func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() error {
	var err error
	cfg, err = config.Load(vp, cfgFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Init(os.Stderr, cfg.LogLevel)
	return nil
}
