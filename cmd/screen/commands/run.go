package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/investor-screening/cmd/screen/ui"
	"github.com/joseph-ayodele/investor-screening/internal/bootstrap"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.pdf>",
		Short: "Run the full screening pipeline on a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.cfg.Pipeline.RunTimeout)
			defer cancel()

			app, err := bootstrap.New(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			if _, err := app.Service.SelectDocument(ctx, filepath.Base(args[0]), data); err != nil {
				return err
			}

			snap, err := runWithSpinner(ctx, cmd, app.Orchestrator)
			w := out(cmd)
			if err != nil {
				ui.Error(w, "%s", snap.Error)
				return err
			}
			printResult(w, snap)
			return nil
		},
	}
}

// runWithSpinner processes the selected document, mirroring progress labels
// into a spinner on stderr.
func runWithSpinner(ctx context.Context, cmd *cobra.Command, orch *pipeline.Orchestrator) (pipeline.Snapshot, error) {
	sp := ui.NewSpinner(cmd.ErrOrStderr(), "Starting...")
	updates, unsubscribe := orch.Subscribe(8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range updates {
			if s.Progress != "" {
				sp.Update(s.Progress)
			}
		}
	}()

	sp.Start()
	snap, err := orch.Process(ctx)
	unsubscribe()
	<-done
	sp.Stop()
	return snap, err
}

func printResult(w io.Writer, snap pipeline.Snapshot) {
	r := snap.Result
	if r == nil {
		ui.Warning(w, "run finished without a result")
		return
	}
	ui.Success(w, "Processed %s", snap.DocumentName)
	ui.Field(w, "Investor", r.ExtractedData.Name)
	ui.Field(w, "Investment amount", r.ExtractedData.InvestmentAmount)
	ui.Field(w, "Address", r.ExtractedData.Address)
	ui.Field(w, "Compliance", ui.Status(r.ComplianceStatus))
	if r.NotificationDraft != "" {
		fmt.Fprintln(w)
		ui.Field(w, "Notification draft", "")
		fmt.Fprintln(w, r.NotificationDraft)
	}
}
