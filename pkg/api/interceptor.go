package api

import (
	"context"

	"github.com/cuemby/hexwarren/pkg/metrics"
	"google.golang.org/grpc"
)

// interceptor times and counts every Call RPC, generalizing the teacher's
// per-method read/write allowlist (which gated leader-forwarding on a
// Unix socket listener) into a single instrumentation point: every
// reducer call already carries its own leader and permission checks
// (Manager.Dispatch rejects off-leader calls, each reducer checks its
// own permission.Lattice), so there's no separate read/write split left
// for the interceptor to enforce.
func (s *Server) interceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		timer := metrics.NewTimer()
		name := reducerNameOf(req)

		resp, err := handler(ctx, req)

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.APIRequestsTotal.WithLabelValues(name, outcome).Inc()
		timer.ObserveDurationVec(metrics.APIRequestDuration, name)
		return resp, err
	}
}

// reducerNameOf extracts the reducer name for metrics labeling without
// the interceptor needing to know about CallRequest's shape beyond this
// one field.
func reducerNameOf(req interface{}) string {
	call, ok := req.(*CallRequest)
	if !ok || call.Reducer == "" {
		return "unknown"
	}
	return call.Reducer
}
