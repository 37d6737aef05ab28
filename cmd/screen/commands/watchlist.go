package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/investor-screening/cmd/screen/ui"
	"github.com/joseph-ayodele/investor-screening/internal/bootstrap"
	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/repository"
)

func newWatchlistCmd(opts *options) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Load the compliance watchlist and report its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.cfg.ValidateWatchlist(); err != nil {
				return err
			}
			checker, closer, err := bootstrap.NewChecker(cmd.Context(), opts.cfg.Watchlist, opts.logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			entries, err := checker.Entries(cmd.Context())
			if err != nil {
				return common.NewAppError(common.CodeWatchlistUnavailable, common.MsgWatchlistUnavailable, err)
			}
			w := out(cmd)
			ui.Success(w, "%d entries from %s", len(entries), checker.Describe())
			if list {
				for _, e := range entries {
					fmt.Fprintln(w, e)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the normalized entries")
	cmd.AddCommand(newWatchlistAddCmd(opts))
	return cmd
}

func newWatchlistAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>...",
		Short: "Add names to a SQL-backed watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl := opts.cfg.Watchlist
			if !repository.IsSQLDSN(wl.Source) {
				return common.NewAppError(common.CodeConfig, "watchlist add needs a postgres:// or sqlite: WATCHLIST_SOURCE", common.ErrInvalidInput)
			}
			db, err := repository.Open(cmd.Context(), repository.Config{DSN: wl.Source, MaxConns: 2, DialTimeout: wl.Timeout}, opts.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := repository.NewWatchlistRepository(db, wl.Table, wl.Column, opts.logger)
			if err := repo.EnsureTable(cmd.Context()); err != nil {
				return err
			}
			if err := repo.AddNames(cmd.Context(), args...); err != nil {
				return err
			}
			n, err := repo.Count(cmd.Context())
			if err != nil {
				return err
			}
			ui.Success(out(cmd), "added %d, watchlist now holds %d names", len(args), n)
			return nil
		},
	}
}
