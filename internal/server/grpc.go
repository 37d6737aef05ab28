package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

const (
	ServiceName = "screening.v1.ScreeningService"

	// DocumentNameHeader carries the file name alongside SelectDocument.
	DocumentNameHeader = "x-document-name"
	RequestIDHeader    = "x-request-id"
)

// ScreeningServer is the gRPC contract. Messages are protobuf well-known types;
// states travel as Struct with the snapshot's JSON keys.
type ScreeningServer interface {
	SelectDocument(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	Process(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Reset(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	WatchState(*emptypb.Empty, grpc.ServerStream) error
}

// ScreeningServiceDesc describes ScreeningServer for grpc.Server.RegisterService.
var ScreeningServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScreeningServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SelectDocument", Handler: selectDocumentHandler},
		{MethodName: "Process", Handler: emptyHandler("Process", ScreeningServer.Process)},
		{MethodName: "Reset", Handler: emptyHandler("Reset", ScreeningServer.Reset)},
		{MethodName: "GetState", Handler: emptyHandler("GetState", ScreeningServer.GetState)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchState", Handler: watchStateHandler, ServerStreams: true},
	},
	Metadata: "screening/v1/screening.proto",
}

func RegisterScreeningServer(s grpc.ServiceRegistrar, srv ScreeningServer) {
	s.RegisterService(&ScreeningServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func selectDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScreeningServer).SelectDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("SelectDocument")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScreeningServer).SelectDocument(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func emptyHandler(name string, call func(ScreeningServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScreeningServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ScreeningServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchStateHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ScreeningServer).WatchState(in, stream)
}

// GRPCService adapts ScreeningService to ScreeningServer.
type GRPCService struct {
	svc    *ScreeningService
	logger *slog.Logger
}

var _ ScreeningServer = (*GRPCService)(nil)

func NewGRPCService(svc *ScreeningService, logger *slog.Logger) *GRPCService {
	return &GRPCService{svc: svc, logger: common.LoggerOr(logger)}
}

func (g *GRPCService) SelectDocument(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	var name string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(DocumentNameHeader); len(v) > 0 {
			name = v[0]
		}
	}
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, DocumentNameHeader+" metadata is required")
	}
	snap, err := g.svc.SelectDocument(ctx, name, req.GetValue())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return g.render(snap)
}

func (g *GRPCService) Process(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := g.svc.Process(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return g.render(snap)
}

func (g *GRPCService) Reset(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return g.render(g.svc.Reset(ctx))
}

func (g *GRPCService) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return g.render(g.svc.State(ctx))
}

func (g *GRPCService) WatchState(_ *emptypb.Empty, stream grpc.ServerStream) error {
	return g.svc.Watch(stream.Context(), func(s pipeline.Snapshot) error {
		st, err := g.render(s)
		if err != nil {
			return err
		}
		return stream.SendMsg(st)
	})
}

func (g *GRPCService) render(s pipeline.Snapshot) (*structpb.Struct, error) {
	st, err := snapshotToStruct(s)
	if err != nil {
		g.logger.Error("server.grpc.render_failed", "error", err)
		return nil, common.InternalError("render state")
	}
	return st, nil
}

// requestIDInterceptor tags every unary call with a request id (from
// x-request-id when present) and logs its outcome.
func requestIDInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, reqID)

		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("server.grpc.call",
			"method", info.FullMethod,
			"req_id", reqID,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// NewGRPCServer builds a server with the screening service, health checks and
// reflection registered. The returned health server is SERVING.
func NewGRPCServer(svc *ScreeningService, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	logger = common.LoggerOr(logger)
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(requestIDInterceptor(logger)),
		grpc.MaxRecvMsgSize(int(svc.maxUploadBytes) + 1024),
	}, opts...)
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(gs)

	RegisterScreeningServer(gs, NewGRPCService(svc, logger))
	return gs, hs
}

// Client is a thin caller for ScreeningServer.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) SelectDocument(ctx context.Context, name string, data []byte) (pipeline.Snapshot, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, DocumentNameHeader, name)
	return c.unary(ctx, "SelectDocument", wrapperspb.Bytes(data))
}

func (c *Client) Process(ctx context.Context) (pipeline.Snapshot, error) {
	return c.unary(ctx, "Process", &emptypb.Empty{})
}

func (c *Client) Reset(ctx context.Context) (pipeline.Snapshot, error) {
	return c.unary(ctx, "Reset", &emptypb.Empty{})
}

func (c *Client) GetState(ctx context.Context) (pipeline.Snapshot, error) {
	return c.unary(ctx, "GetState", &emptypb.Empty{})
}

func (c *Client) unary(ctx context.Context, method string, in any) (pipeline.Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return pipeline.Snapshot{}, err
	}
	return structToSnapshot(out)
}

// WatchState calls fn for each streamed state until the stream ends, ctx is
// cancelled or fn returns false.
func (c *Client) WatchState(ctx context.Context, fn func(pipeline.Snapshot) bool) error {
	stream, err := c.cc.NewStream(ctx, &ScreeningServiceDesc.Streams[0], fullMethod("WatchState"))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		st := new(structpb.Struct)
		if err := stream.RecvMsg(st); err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}
		snap, err := structToSnapshot(st)
		if err != nil {
			return err
		}
		if !fn(snap) {
			return nil
		}
	}
}
