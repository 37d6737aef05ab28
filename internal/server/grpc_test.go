package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

func dialBufconn(t *testing.T, svc *ScreeningService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs, _ := NewGRPCServer(svc, discard)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPCApprovedRun(t *testing.T) {
	svc := newTestService(t, &gatedAnalyzer{})
	client := NewClient(dialBufconn(t, svc))
	ctx := context.Background()

	snap, err := client.SelectDocument(ctx, "subscription.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, constants.StageIdle, snap.Stage)
	assert.Equal(t, "subscription.pdf", snap.DocumentName)

	_, err = client.Process(ctx)
	require.NoError(t, err)

	final := waitForStage(t, svc, constants.StageComplete)
	got, err := client.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, final.Version, got.Version)
	require.NotNil(t, got.Result)
	assert.Equal(t, constants.ComplianceApproved, got.Result.ComplianceStatus)
	assert.Equal(t, "Dear Jane Doe, welcome.", got.Result.NotificationDraft)
}

func TestGRPCErrorMapping(t *testing.T) {
	svc := newTestService(t, &gatedAnalyzer{})
	client := NewClient(dialBufconn(t, svc))
	ctx := context.Background()

	_, err := client.Process(ctx)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, common.MsgNoDocumentSelected, status.Convert(err).Message())

	_, err = client.SelectDocument(ctx, "notes.txt", []byte("hello"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.SelectDocument(ctx, "", []byte("hello"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCRunInProgress(t *testing.T) {
	analyzer := &gatedAnalyzer{release: make(chan struct{})}
	svc := newTestService(t, analyzer)
	client := NewClient(dialBufconn(t, svc))
	ctx := context.Background()

	_, err := client.SelectDocument(ctx, "a.pdf", []byte("x"))
	require.NoError(t, err)
	_, err = client.Process(ctx)
	require.NoError(t, err)
	waitForStage(t, svc, constants.StageAnalyzing)

	_, err = client.Process(ctx)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	_, err = client.SelectDocument(ctx, "b.pdf", []byte("y"))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	close(analyzer.release)
	waitForStage(t, svc, constants.StageComplete)
}

func TestGRPCWatchState(t *testing.T) {
	svc := newTestService(t, &gatedAnalyzer{})
	client := NewClient(dialBufconn(t, svc))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.SelectDocument(ctx, "a.pdf", []byte("x"))
	require.NoError(t, err)

	started := make(chan struct{})
	var stages []constants.Stage
	done := make(chan error, 1)
	go func() {
		first := true
		done <- client.WatchState(ctx, func(s pipeline.Snapshot) bool {
			if first {
				first = false
				close(started)
			}
			stages = append(stages, s.Stage)
			return !s.Stage.Terminal()
		})
	}()

	<-started
	_, err = client.Process(ctx)
	require.NoError(t, err)
	require.NoError(t, <-done)

	require.NotEmpty(t, stages)
	assert.Equal(t, constants.StageIdle, stages[0])
	assert.Equal(t, constants.StageComplete, stages[len(stages)-1])
}

func TestGRPCHealth(t *testing.T) {
	svc := newTestService(t, &gatedAnalyzer{})
	conn := dialBufconn(t, svc)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
