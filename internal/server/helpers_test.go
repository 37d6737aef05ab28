package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/async"
	"github.com/joseph-ayodele/investor-screening/internal/extract"
	"github.com/joseph-ayodele/investor-screening/internal/llm"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type textEngine struct{}

func (textEngine) ExtractPages(context.Context, []byte) ([]string, error) {
	return []string{"Subscription agreement for Jane Doe, 50,000 USD, 1 Main St"}, nil
}

// gatedAnalyzer blocks until release is closed when gate is set.
type gatedAnalyzer struct {
	release chan struct{}
}

func (a *gatedAnalyzer) AnalyzeDocument(ctx context.Context, _ string) (llm.InvestorFields, []byte, error) {
	if a.release != nil {
		select {
		case <-a.release:
		case <-ctx.Done():
			return llm.InvestorFields{}, nil, ctx.Err()
		}
	}
	return llm.InvestorFields{Name: "Jane Doe", InvestmentAmount: "50,000 USD", Address: "1 Main St"}, nil, nil
}

type approveAll struct{}

func (approveAll) Check(context.Context, string) (constants.ComplianceStatus, error) {
	return constants.ComplianceApproved, nil
}

type fixedDrafter struct{}

func (fixedDrafter) DraftNotification(_ context.Context, req llm.DraftRequest) (string, error) {
	return "Dear " + req.Fields.Name + ", welcome.", nil
}

func newTestService(t *testing.T, analyzer *gatedAnalyzer, opts ...ServiceOption) *ScreeningService {
	t.Helper()
	orch := pipeline.New(
		extract.NewAdapter(textEngine{}, extract.WithLogger(discard)),
		analyzer, approveAll{}, fixedDrafter{},
		pipeline.WithLogger(discard),
	)
	q := async.NewRunQueue(discard, async.WithProcessTimeout(5*time.Second))
	t.Cleanup(func() { q.Shutdown(context.Background()) })
	return NewScreeningService(orch, q, discard, opts...)
}

func waitForStage(t *testing.T, svc *ScreeningService, stage constants.Stage) pipeline.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s := svc.State(context.Background()); s.Stage == stage {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("stage %s not reached; last %s", stage, svc.State(context.Background()).Stage)
	return pipeline.Snapshot{}
}
