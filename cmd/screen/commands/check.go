package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/investor-screening/cmd/screen/ui"
	"github.com/joseph-ayodele/investor-screening/internal/bootstrap"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Check a name against the compliance watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.ValidateWatchlist(); err != nil {
				return err
			}
			checker, closer, err := bootstrap.NewChecker(cmd.Context(), opts.cfg.Watchlist, opts.logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			name := strings.Join(args, " ")
			status, err := checker.Check(cmd.Context(), name)
			if err != nil {
				return err
			}
			ui.Field(out(cmd), name, ui.Status(status))
			return nil
		},
	}
}
