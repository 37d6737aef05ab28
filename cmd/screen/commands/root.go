package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/investor-screening/cmd/screen/ui"
	"github.com/joseph-ayodele/investor-screening/internal/common"
)

type options struct {
	cfgFile string
	verbose bool
	noColor bool

	cfg    *common.Config
	logger *slog.Logger
}

// NewRootCmd builds the screen command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "screen",
		Short: "Screen investor documents against a compliance watchlist",
		Long: `screen extracts investor details from a subscription PDF, checks the
investor's name against the compliance watchlist and drafts the notification
email for the outcome.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig(opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			logCfg := cfg.Log
			if !opts.verbose {
				logCfg.Level = "warn"
			}
			logCfg.Format = "text"
			opts.logger = common.NewLoggerTo(cmd.ErrOrStderr(), logCfg)
			ui.Init(opts.noColor)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline events to stderr")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newRunCmd(opts),
		newExtractCmd(opts),
		newCheckCmd(opts),
		newWatchlistCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
