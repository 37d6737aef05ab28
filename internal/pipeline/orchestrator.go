package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/extract"
	"github.com/joseph-ayodele/investor-screening/internal/llm"
)

// ErrRunSuperseded is returned by Execute when a Reset or a newer run took
// over while this run was in flight. Nothing it produced was published.
var ErrRunSuperseded = errors.New("run superseded")

// Extractor is the extraction stage.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (extract.TextExtractionResult, error)
}

// ComplianceChecker is the compliance stage.
type ComplianceChecker interface {
	Check(ctx context.Context, name string) (constants.ComplianceStatus, error)
}

// TokenFunc mints run tokens.
type TokenFunc func() string

// Orchestrator owns the pipeline state. All mutations go through its mutex
// and every one is published as a whole snapshot.
type Orchestrator struct {
	extractor Extractor
	analyzer  llm.StructuredAnalyzer
	checker   ComplianceChecker
	drafter   llm.NotificationDrafter

	logger   *slog.Logger
	newToken TokenFunc
	broker   *broker

	mu    sync.Mutex
	state Snapshot
	doc   *extract.Document
	token string
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

func WithTokenFunc(f TokenFunc) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.newToken = f
		}
	}
}

func New(ex Extractor, an llm.StructuredAnalyzer, ch ComplianceChecker, dr llm.NotificationDrafter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor: ex,
		analyzer:  an,
		checker:   ch,
		drafter:   dr,
		newToken:  func() string { return uuid.New().String() },
		broker:    newBroker(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = common.LoggerOr(o.logger)
	o.state = Snapshot{Stage: constants.StageIdle, UpdatedAt: time.Now()}
	return o
}

// State returns a copy of the current snapshot.
func (o *Orchestrator) State() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Subscribe returns a channel that receives the current snapshot followed by
// every later publish. cancel closes the channel.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Snapshot, func()) {
	o.mu.Lock()
	id, ch := o.broker.subscribe(buffer)
	offer(ch, o.state.Clone())
	o.mu.Unlock()

	var once sync.Once
	return ch, func() { once.Do(func() { o.broker.unsubscribe(id) }) }
}

// SelectDocument replaces the held document (nil clears it) and drops any
// previous result or error. Refused while a run is active.
func (o *Orchestrator) SelectDocument(doc *extract.Document) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Stage.Active() {
		return common.NewAppError(common.CodeRunInProgress, common.MsgRunInProgress, nil)
	}
	o.doc = doc
	o.state.RunID = ""
	o.state.Stage = constants.StageIdle
	o.state.HasDocument = doc != nil
	o.state.DocumentName = ""
	o.state.DocumentSize = 0
	if doc != nil {
		o.state.DocumentName = doc.Name
		o.state.DocumentSize = doc.Size()
	}
	o.state.Result = nil
	o.state.ErrorCode = ""
	o.state.Error = ""
	o.state.Progress = ""
	o.commitLocked()
	o.logger.Info("pipeline.document.selected", "has_document", doc != nil, "name", o.state.DocumentName, "size", o.state.DocumentSize)
	return nil
}

// Reset returns to Idle from any state and forgets the document. A run in
// flight keeps going until its current stage returns, then stops unpublished.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.token
	o.token = o.newToken()
	o.doc = nil
	o.state = Snapshot{Stage: constants.StageIdle, Version: o.state.Version}
	o.commitLocked()
	o.logger.Info("pipeline.reset", "previous_run_id", prev)
}

// Begin validates and starts a run: it mints a token, clears the previous
// outcome and publishes Extracting. The caller must Execute the returned run.
func (o *Orchestrator) Begin() (*Run, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.doc == nil {
		o.logger.Warn("pipeline.begin.rejected", "reason", common.CodeNoDocumentSelected)
		return nil, common.NewAppError(common.CodeNoDocumentSelected, common.MsgNoDocumentSelected, nil)
	}
	if o.state.Stage.Active() {
		o.logger.Warn("pipeline.begin.rejected", "reason", common.CodeRunInProgress, "run_id", o.token)
		return nil, common.NewAppError(common.CodeRunInProgress, common.MsgRunInProgress, nil)
	}

	o.token = o.newToken()
	o.state.RunID = o.token
	o.state.Stage = constants.StageExtracting
	o.state.Result = nil
	o.state.ErrorCode = ""
	o.state.Error = ""
	o.state.Progress = constants.ProgressLabel(constants.StageExtracting)
	o.commitLocked()

	o.logger.Info("pipeline.run.start", "run_id", o.token, "document", o.doc.Name, "size", o.doc.Size())
	return &Run{o: o, token: o.token, doc: o.doc}, nil
}

// Process is Begin followed by Execute on the calling goroutine.
func (o *Orchestrator) Process(ctx context.Context) (Snapshot, error) {
	run, err := o.Begin()
	if err != nil {
		return o.State(), err
	}
	return run.Execute(ctx)
}

// commitLocked stamps and broadcasts the current state. Caller holds o.mu.
func (o *Orchestrator) commitLocked() {
	o.state.Version++
	o.state.UpdatedAt = time.Now()
	o.broker.publish(o.state)
}

// publish applies mutate if token is still current. Stale publishes are dropped.
func (o *Orchestrator) publish(token string, mutate func(*Snapshot)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token != o.token {
		o.logger.Warn("pipeline.publish.stale", "run_id", token, "current_run_id", o.token)
		return false
	}
	mutate(&o.state)
	o.commitLocked()
	return true
}

// Run is one accepted processing request.
type Run struct {
	o     *Orchestrator
	token string
	doc   *extract.Document
	done  atomic.Bool
}

func (r *Run) ID() string { return r.token }

// Execute runs the four stages in order. It returns the snapshot this run
// last published and the failure, if any.
func (r *Run) Execute(ctx context.Context) (Snapshot, error) {
	if !r.done.CompareAndSwap(false, true) {
		return r.o.State(), fmt.Errorf("run %s already executed", r.token)
	}
	ctx = common.WithRunID(ctx, r.token)
	start := time.Now()

	snap, err := r.execute(ctx)
	switch {
	case errors.Is(err, ErrRunSuperseded):
		r.o.logger.Warn("pipeline.run.superseded", "run_id", r.token, "elapsed_ms", time.Since(start).Milliseconds())
		return r.o.State(), err
	case err != nil:
		return r.fail(err, start)
	}
	r.o.logger.Info("pipeline.run.complete",
		"run_id", r.token,
		"compliance_status", snap.Result.ComplianceStatus,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// Fail ends a run that could not be executed, e.g. because the queue refused it.
func (r *Run) Fail(err error) Snapshot {
	if !r.done.CompareAndSwap(false, true) {
		return r.o.State()
	}
	if common.CodeOf(err) == "" {
		err = common.NewAppError(common.CodeUnknownFailure, common.MsgUnknownFailure, err)
	}
	snap, _ := r.fail(err, time.Now())
	return snap
}

func (r *Run) fail(err error, start time.Time) (Snapshot, error) {
	msg := common.FailureMessage(err)
	code := common.CodeOf(err)
	var snap Snapshot
	ok := r.o.publish(r.token, func(s *Snapshot) {
		s.Stage = constants.StageFailed
		s.Result = nil
		s.ErrorCode = code
		s.Error = msg
		s.Progress = ""
		snap = s.Clone()
	})
	if !ok {
		return r.o.State(), ErrRunSuperseded
	}
	r.o.logger.Error("pipeline.run.failed",
		"run_id", r.token,
		"code", code,
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return snap, err
}

func (r *Run) execute(ctx context.Context) (Snapshot, error) {
	o := r.o
	var snap Snapshot

	if !r.current() {
		return snap, ErrRunSuperseded
	}

	// Extracting
	t := time.Now()
	res, err := guard(func() (extract.TextExtractionResult, error) {
		return o.extractor.Extract(ctx, r.doc.Data)
	})
	if err != nil {
		return snap, classify(err, common.CodeInsufficientContent, common.MsgInsufficientContent)
	}
	if !r.advance(func(s *Snapshot) {
		s.Stage = constants.StageAnalyzing
		s.Progress = constants.ProgressLabel(constants.StageAnalyzing)
	}) {
		return snap, ErrRunSuperseded
	}
	o.logger.Info("pipeline.stage.ok", "run_id", r.token, "stage", constants.StageExtracting, "pages", res.Pages, "elapsed_ms", time.Since(t).Milliseconds())

	// Analyzing
	t = time.Now()
	fields, err := guard(func() (llm.InvestorFields, error) {
		f, _, err := o.analyzer.AnalyzeDocument(ctx, res.Text)
		return f, err
	})
	if err != nil {
		return snap, classify(err, common.CodeAnalysisFailed, common.MsgAnalysisFailed)
	}
	if err := checkFields(fields); err != nil {
		return snap, llm.InvalidStructure(err)
	}
	if !r.advance(func(s *Snapshot) {
		s.Stage = constants.StageCheckingCompliance
		s.Progress = constants.ProgressLabel(constants.StageCheckingCompliance)
		s.Result = &ProcessedResult{ExtractedData: fields, ComplianceStatus: constants.ComplianceChecking}
	}) {
		return snap, ErrRunSuperseded
	}
	o.logger.Info("pipeline.stage.ok", "run_id", r.token, "stage", constants.StageAnalyzing, "elapsed_ms", time.Since(t).Milliseconds())

	// CheckingCompliance
	t = time.Now()
	status, err := guard(func() (constants.ComplianceStatus, error) {
		return o.checker.Check(ctx, fields.Name)
	})
	if err != nil {
		return snap, classify(err, common.CodeWatchlistUnavailable, common.MsgWatchlistUnavailable)
	}
	if !status.IsOutcome() {
		o.logger.Warn("pipeline.compliance.unexpected_status", "run_id", r.token, "status", string(status))
		if !r.advance(func(s *Snapshot) {
			s.Stage = constants.StageComplete
			s.Progress = ""
			s.Result.ComplianceStatus = status
			snap = s.Clone()
		}) {
			return snap, ErrRunSuperseded
		}
		return snap, nil
	}
	if !r.advance(func(s *Snapshot) {
		s.Stage = constants.StageDrafting
		s.Progress = constants.ProgressLabel(constants.StageDrafting)
		s.Result.ComplianceStatus = status
	}) {
		return snap, ErrRunSuperseded
	}
	o.logger.Info("pipeline.stage.ok", "run_id", r.token, "stage", constants.StageCheckingCompliance, "status", string(status), "elapsed_ms", time.Since(t).Milliseconds())

	// Drafting
	t = time.Now()
	draft, err := guard(func() (string, error) {
		return o.drafter.DraftNotification(ctx, llm.DraftRequest{Fields: fields, Status: status})
	})
	if err != nil {
		return snap, classify(err, common.CodeDraftFailed, common.MsgDraftFailed)
	}
	if strings.TrimSpace(draft) == "" {
		return snap, llm.DraftFailed(llm.ErrEmptyResponse)
	}
	if !r.advance(func(s *Snapshot) {
		s.Stage = constants.StageComplete
		s.Progress = ""
		s.Result.NotificationDraft = draft
		snap = s.Clone()
	}) {
		return snap, ErrRunSuperseded
	}
	o.logger.Info("pipeline.stage.ok", "run_id", r.token, "stage", constants.StageDrafting, "elapsed_ms", time.Since(t).Milliseconds())
	return snap, nil
}

// current reports whether this run still owns the orchestrator state.
func (r *Run) current() bool {
	r.o.mu.Lock()
	defer r.o.mu.Unlock()
	return r.token == r.o.token
}

func (r *Run) advance(mutate func(*Snapshot)) bool {
	return r.o.publish(r.token, mutate)
}

// guard converts a panic in fn into an UNKNOWN_FAILURE error.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = common.NewAppError(common.CodeUnknownFailure, common.MsgUnknownFailure, fmt.Errorf("panic: %v", rec))
		}
	}()
	return fn()
}

// classify attributes an uncoded stage error to the stage that produced it.
func classify(err error, code, msg string) error {
	if common.CodeOf(err) != "" {
		return err
	}
	return common.NewAppError(code, msg, err)
}

func checkFields(f llm.InvestorFields) error {
	return common.NewValidator().
		Field(llm.FieldName, f.Name, common.Required).
		Field(llm.FieldInvestmentAmount, f.InvestmentAmount, common.Required).
		Field(llm.FieldAddress, f.Address, common.Required).
		Error()
}
