package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/cuemby/hexwarren/pkg/log"
	"github.com/cuemby/hexwarren/pkg/manager"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/types"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CallRequest is the single RPC envelope every client uses to invoke a
// named reducer. There is no per-reducer message type: Args is opaque
// JSON the named reducer's own decoder validates, the same contract
// runtime.Register already imposes server-side.
type CallRequest struct {
	Reducer string          `json:"reducer"`
	Caller  types.Identity  `json:"caller"`
	Args    json.RawMessage `json:"args"`
}

// CallResponse carries either success or a classified runtime.Error back
// to the caller. Kind lets a client distinguish "retry against the
// leader" from "this request is malformed" without string-matching
// Message.
type CallResponse struct {
	Kind    runtime.Kind `json:"kind,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Server is the gRPC front door onto a Manager. Every write and read goes
// through Manager.Dispatch or Manager.World respectively; Server never
// touches raft or bbolt directly.
type Server struct {
	manager *manager.Manager
	grpc    *grpc.Server
	logger  zerolog.Logger
}

// NewServer builds a Server wired to mgr. Unlike a cluster-orchestration
// API fronted by mTLS node certificates, this server takes each call's
// caller identity from CallRequest.Caller as sent, without checking it
// against a session, and transport security is left to the deployment's
// own TLS termination rather than baked into this package.
func NewServer(mgr *manager.Manager) *Server {
	s := &Server{
		manager: mgr,
		logger:  log.WithComponent("api"),
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(s.interceptor()))
	srv.RegisterService(&reducerServiceDesc, s)
	s.grpc = srv
	return s
}

// Start listens on addr and serves until the listener errors or Stop is
// called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.logger.Info().Str("addr", addr).Msg("api server listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight calls and shuts the server down.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

// Call dispatches req.Reducer through the Manager and reports the
// outcome. It is exported so reducerServiceDesc's handler, and any
// in-process caller that wants to skip the network hop, can both reach
// it.
func (s *Server) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	if req.Reducer == "" {
		return nil, status.Error(codes.InvalidArgument, "reducer name required")
	}

	err := s.manager.Dispatch(req.Caller, req.Reducer, req.Args)
	if err == nil {
		return &CallResponse{}, nil
	}

	rerr, ok := err.(*runtime.Error)
	if !ok {
		rerr = &runtime.Error{Kind: runtime.KindInternal, Message: err.Error()}
	}
	return &CallResponse{Kind: rerr.Kind, Message: rerr.Error()}, status.Error(grpcCodeFor(rerr.Kind), rerr.Error())
}

// grpcCodeFor maps a reducer's classified failure onto the closest gRPC
// status code, so a generic gRPC client's retry/backoff policy (which
// keys off codes.Unavailable, codes.FailedPrecondition, and so on)
// behaves sensibly without knowing anything about this domain's Kind
// taxonomy.
func grpcCodeFor(kind runtime.Kind) codes.Code {
	switch kind {
	case runtime.KindUnauthorized:
		return codes.PermissionDenied
	case runtime.KindBlocked:
		return codes.FailedPrecondition
	case runtime.KindNotFound:
		return codes.NotFound
	case runtime.KindPrecondition:
		return codes.FailedPrecondition
	case runtime.KindResource:
		return codes.ResourceExhausted
	case runtime.KindConflict:
		return codes.Aborted
	case runtime.KindInvalidArgument:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// callHandler adapts the grpc.MethodDesc calling convention (decode via
// the registered codec, invoke, re-encode) onto Server.Call, standing in
// for the unary handler protoc-gen-go-grpc would normally generate from
// a .proto file.
func callHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(CallRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).Call(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hexwarren.ReducerService/Call"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Server).Call(ctx, req.(*CallRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// reducerServiceDesc is a hand-written grpc.ServiceDesc standing in for
// generated code: this domain has exactly one RPC shape, call a named
// reducer with opaque JSON args, so there is nothing a .proto file and
// protoc-gen-go-grpc would buy beyond what's written here directly.
var reducerServiceDesc = grpc.ServiceDesc{
	ServiceName: "hexwarren.ReducerService",
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: callHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/api/server.go",
}
