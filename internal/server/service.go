package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/async"
	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/extract"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

const maxDocumentNameLength = 255

// Orchestrator is the part of pipeline.Orchestrator the network surfaces drive.
type Orchestrator interface {
	State() pipeline.Snapshot
	Subscribe(buffer int) (<-chan pipeline.Snapshot, func())
	SelectDocument(doc *extract.Document) error
	Reset()
	Begin() (*pipeline.Run, error)
}

// ScreeningService holds the operations shared by the gRPC and HTTP surfaces.
type ScreeningService struct {
	orch           Orchestrator
	queue          async.Queue
	maxUploadBytes int64
	subBuffer      int
	logger         *slog.Logger
}

type ServiceOption func(*ScreeningService)

func WithMaxUploadBytes(n int64) ServiceOption {
	return func(s *ScreeningService) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func WithSubscriberBuffer(n int) ServiceOption {
	return func(s *ScreeningService) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}

func NewScreeningService(orch Orchestrator, queue async.Queue, logger *slog.Logger, opts ...ServiceOption) *ScreeningService {
	s := &ScreeningService{
		orch:           orch,
		queue:          queue,
		maxUploadBytes: constants.MaxUploadBytesDefault,
		subBuffer:      16,
		logger:         common.LoggerOr(logger),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SelectDocument validates an uploaded document and hands it to the orchestrator.
func (s *ScreeningService) SelectDocument(ctx context.Context, name string, data []byte) (pipeline.Snapshot, error) {
	name = filepath.Base(strings.TrimSpace(name))
	v := common.NewValidator().
		Field("name", name, common.Required, common.MaxLength(maxDocumentNameLength), common.DocumentExtension).
		Field("document", data, common.Required)
	if err := v.Error(); err != nil {
		s.logger.Warn("server.document.rejected", append(common.LogAttrs(ctx), "name", name, "error", err)...)
		return pipeline.Snapshot{}, err
	}
	if int64(len(data)) > s.maxUploadBytes {
		s.logger.Warn("server.document.too_large", append(common.LogAttrs(ctx), "name", name, "size", len(data))...)
		return pipeline.Snapshot{}, common.NewAppError(common.CodeDocumentTooLarge, fmt.Sprintf("document exceeds the %d byte upload limit", s.maxUploadBytes), common.ErrInvalidInput)
	}
	if err := s.orch.SelectDocument(&extract.Document{Name: name, Data: data}); err != nil {
		return pipeline.Snapshot{}, err
	}
	return s.orch.State(), nil
}

// ClearDocument deselects the held document.
func (s *ScreeningService) ClearDocument(context.Context) (pipeline.Snapshot, error) {
	if err := s.orch.SelectDocument(nil); err != nil {
		return pipeline.Snapshot{}, err
	}
	return s.orch.State(), nil
}

// Process starts a run and queues it. It returns once the run is accepted;
// progress is observed through State or Watch.
func (s *ScreeningService) Process(ctx context.Context) (pipeline.Snapshot, error) {
	run, err := s.orch.Begin()
	if err != nil {
		return s.orch.State(), err
	}
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	if err := s.queue.Enqueue(ctx, async.Job{Run: run, TraceID: reqID}); err != nil {
		s.logger.Error("server.process.enqueue_failed", "run_id", run.ID(), "req_id", reqID, "error", err)
		return s.orch.State(), err
	}
	s.logger.Info("server.process.accepted", "run_id", run.ID(), "req_id", reqID)
	return s.orch.State(), nil
}

func (s *ScreeningService) Reset(context.Context) pipeline.Snapshot {
	s.orch.Reset()
	return s.orch.State()
}

func (s *ScreeningService) State(context.Context) pipeline.Snapshot {
	return s.orch.State()
}

// Watch calls send for the current state and every later change until ctx
// ends or send fails.
func (s *ScreeningService) Watch(ctx context.Context, send func(pipeline.Snapshot) error) error {
	ch, cancel := s.orch.Subscribe(s.subBuffer)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			if err := send(snap); err != nil {
				return err
			}
		}
	}
}
