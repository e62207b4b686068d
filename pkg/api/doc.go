/*
Package api implements the gRPC front door onto a Manager.

There is no per-operation RPC and no generated Protocol Buffer service:
every write in this domain already flows through a single chokepoint,
Manager.Dispatch, which takes a reducer name and opaque JSON args and
commits the call through raft. The API surface mirrors that shape
exactly — one RPC, Call(CallRequest) CallResponse — rather than
reintroducing a method-per-resource gRPC service the way a
cluster-orchestration control plane would. A hand-written
grpc.ServiceDesc (server.go) stands in for what protoc-gen-go-grpc would
normally generate, and a JSON codec (codec.go) replaces the default
proto wire codec, since CallRequest/CallResponse are plain structs, not
generated proto.Message types.

# Architecture

	┌──────────────── CLIENT (game client / worker) ─────────────┐
	│  gRPC stub, Call(CallRequest{Reducer, Caller, Args})        │
	└─────────────────────────┼────────────────────────────────────┘
	                          │ gRPC
	┌─────────────────────────▼──── MANAGER NODE ─────────────────┐
	│  Server (pkg/api): metrics interceptor, JSON codec           │
	│     │                                                        │
	│     ▼                                                        │
	│  Manager.Dispatch → raft.Apply → WorldFSM → named reducer     │
	└────────────────────────────────────────────────────────────┘

# Authentication

Reducers identify the caller by CallRequest.Caller, not by transport
certificate. This package passes Caller to Manager.Dispatch as sent and
does not check it against a session. pkg/identity's sign_in records a
SessionState for an Account; player_move looks up the caller's active
session itself, and role- or claim-scoped reducers check RoleBinding
rows or pkg/permission's Lattice. This package carries
no mTLS handshake or certificate rotation logic; TLS termination, if
required, belongs to the deployment's load balancer or sidecar.

# Error mapping

A reducer failure comes back as a *runtime.Error with a Kind
(runtime.KindNotFound, runtime.KindConflict, and so on). grpcCodeFor
maps each Kind onto the nearest gRPC status code so a generic client's
retry policy behaves sensibly without understanding this domain's error
taxonomy, while CallResponse.Kind preserves the original classification
for a client that does.

# Health and metrics

HealthServer (health.go) exposes /health (liveness), /ready (raft
leadership plus a world storage read), and /metrics (pkg/metrics,
Prometheus text exposition) over plain HTTP, so an orchestrator's probes
never need a gRPC client. The gRPC Call RPC itself is instrumented by
the same interceptor (interceptor.go) that used to gate read-only
methods on a Unix socket listener — generalized here into a single
per-reducer request counter and latency histogram, since every reducer
now owns its own leader and permission checks rather than relying on
the API layer to classify read vs. write by method name prefix.
*/
package api
