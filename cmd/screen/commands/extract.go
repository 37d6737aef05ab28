package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/investor-screening/cmd/screen/ui"
	"github.com/joseph-ayodele/investor-screening/internal/bootstrap"
)

func newExtractCmd(opts *options) *cobra.Command {
	var statsOnly bool
	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Extract and print the text of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := bootstrap.NewExtractor(opts.cfg.Extract, opts.logger)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			res, err := ex.Extract(cmd.Context(), data)
			if err != nil {
				return err
			}
			w := out(cmd)
			ui.Field(w, "Method", res.Method)
			ui.Field(w, "Pages", fmt.Sprint(res.Pages))
			ui.Field(w, "Characters", fmt.Sprint(len([]rune(res.Text))))
			ui.Field(w, "Elapsed", res.Duration.String())
			if !statsOnly {
				fmt.Fprintln(w)
				fmt.Fprintln(w, res.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statsOnly, "stats", false, "print only extraction statistics")
	return cmd
}
