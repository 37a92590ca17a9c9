package cli

import (
	"github.com/mgpai22/ccconv/internal/config"
	"github.com/mgpai22/ccconv/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ccconv",
	Short: "Broadcast caption converter",
	Long: `ccconv converts captions between Scenarist SCC (EIA-608) and
text subtitle formats.

It reads and writes SCC, SRT, WebVTT and ASS/SSA files, keeping text,
timing, italics, underline and screen placement as far as each format
allows.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cfg.Path() != "" {
			logger.Debugw("Loaded config file", "path", cfg.Path())
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file path (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Track language tag (e.g. en-US, es, fr), or auto to detect it")
}
