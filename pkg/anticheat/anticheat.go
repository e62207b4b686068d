// Package anticheat implements movement request validation: per-request
// dedup keyed by (identity, request_id), strictly-monotonic client
// timestamps, session/region binding, finite-position checks, and a
// bounded per-step distance check. Grounded on
// original_source/stitch-server/.../validation/anti_cheat.rs.
package anticheat

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

// MoveMaxDistancePerStep is the largest Euclidean step a single movement
// request may advance an actor, in world units.
const MoveMaxDistancePerStep = 8.0

// moveMaxDistanceSq is the squared form the hot-path check compares
// against, avoiding a sqrt per movement request.
const moveMaxDistanceSq = MoveMaxDistancePerStep * MoveMaxDistancePerStep

func init() {
	runtime.Register("player_move", playerMove)
}

func requestKey(id types.Identity, requestID string) string {
	return fmt.Sprintf("%x:%s", id[:], requestID)
}

func validateRequestID(requestID string) (string, error) {
	trimmed := strings.TrimSpace(requestID)
	if trimmed == "" {
		return "", runtime.NewError(runtime.KindInvalidArgument, "request_id must not be empty")
	}
	if len(trimmed) > 64 {
		return "", runtime.NewError(runtime.KindInvalidArgument, "request_id must be <= 64 chars")
	}
	return trimmed, nil
}

func distanceSq(ax, ay, az, bx, by, bz float32) float32 {
	dx, dy, dz := ax-bx, ay-by, az-bz
	return dx*dx + dy*dy + dz*dz
}

func finitePosition(x, y, z float32) bool {
	for _, v := range [3]float64{float64(x), float64(y), float64(z)} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// playerEntity derives the spatial entity id ctx.Caller maps to, the same
// convention pkg/building and pkg/collab each carry their own copy of.
func playerEntity(caller types.Identity) uint64 {
	var id uint64
	for i := 0; i < 8; i++ {
		id = (id << 8) | uint64(caller[i])
	}
	return id
}

// PlayerMoveArgs is one client-submitted movement sample.
type PlayerMoveArgs struct {
	RequestID  string  `json:"request_id"`
	ClientTSMs int64   `json:"client_ts_ms"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Z          float32 `json:"z"`
	RegionID   uint64  `json:"region_id"`
}

// playerMove accepts or rejects one movement sample: duplicates of an
// already-seen (identity, request_id) are silently accepted as a no-op
// (the client's retry already landed); a missing/region-mismatched
// session, a non-finite position, non-monotonic timestamps, and
// over-distance steps are all logged as violations and rejected without
// failing the reducer call itself — an accepted sample updates the
// actor's authoritative position and TransformState.
func playerMove(ctx *runtime.Context, raw json.RawMessage) error {
	var args PlayerMoveArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode player_move args")
	}
	requestID, err := validateRequestID(args.RequestID)
	if err != nil {
		return err
	}

	reqKey := []byte(requestKey(ctx.Caller, requestID))
	if _, ok, err := ctx.World.MovementLogs.Get(reqKey); err != nil {
		return err
	} else if ok {
		return nil // already-processed request, treat as idempotent success
	}

	sessions, err := ctx.World.Sessions.Filter(func(s types.SessionState) bool {
		return s.Identity == ctx.Caller && s.Status == types.SessionStatusActive
	})
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return rejectMove(ctx, "no_active_session", args, reqKey)
	}
	if sessions[0].RegionID != args.RegionID {
		return rejectMove(ctx, "region_mismatch", args, reqKey)
	}

	if !finitePosition(args.X, args.Y, args.Z) {
		return rejectMove(ctx, "non_finite_position", args, reqKey)
	}

	actor, hasActor, err := ctx.World.MovementActors.Get(ctx.Caller[:])
	if err != nil {
		return err
	}

	if hasActor {
		if args.ClientTSMs <= actor.LastClientTSMs {
			return rejectMove(ctx, "non_monotonic_timestamp", args, reqKey)
		}
		if distanceSq(actor.X, actor.Y, actor.Z, args.X, args.Y, args.Z) > moveMaxDistanceSq {
			return rejectMove(ctx, "distance_exceeded", args, reqKey)
		}
	}

	actor = types.MovementActorState{
		Identity: ctx.Caller, LastClientTSMs: args.ClientTSMs,
		X: args.X, Y: args.Y, Z: args.Z, LastRequestID: requestID,
	}
	if err := ctx.World.MovementActors.Update(ctx.Caller[:], actor); err != nil {
		return err
	}

	entityKey := storage.EncodeUint64Key(playerEntity(ctx.Caller))
	transform, ok, err := ctx.World.Transforms.Get(entityKey)
	if err != nil {
		return err
	}
	if !ok {
		transform = types.TransformState{EntityID: playerEntity(ctx.Caller)}
	}
	transform.X, transform.Y, transform.Z = args.X, args.Y, args.Z
	if err := ctx.World.Transforms.Update(entityKey, transform); err != nil {
		return err
	}

	id, err := ctx.World.Seq.Next("movement_logs")
	if err != nil {
		return err
	}
	entry := types.MovementRequestLog{
		LogID: id, Identity: ctx.Caller, RequestID: requestID,
		ClientTSMs: args.ClientTSMs, Accepted: true, ReceivedAt: ctx.Now,
	}
	if err := ctx.World.MovementLogs.Insert(reqKey, entry); err != nil {
		return err
	}
	ctx.Publish("movement_actors", events.OpUpdate, actor)
	ctx.Publish("transforms", events.OpUpdate, transform)
	return nil
}

// rejectMove records the violation and the denied-request log entry and
// returns nil: a rejected movement sample is a logged, billable event for
// the client to observe (e.g. a snap-back), not a reducer failure.
func rejectMove(ctx *runtime.Context, reason string, args PlayerMoveArgs, reqKey []byte) error {
	violation := types.MovementViolation{
		ViolationID: fmt.Sprintf("%x:%d:%s", ctx.Caller[:], ctx.Now.UnixNano(), reason),
		Identity:    ctx.Caller,
		Reason:      reason,
		DetectedAt:  ctx.Now,
	}
	violationKey := []byte(violation.ViolationID)
	if err := ctx.World.MovementViolations.Insert(violationKey, violation); err != nil {
		return err
	}

	entry := types.MovementRequestLog{
		Identity: ctx.Caller, RequestID: args.RequestID,
		ClientTSMs: args.ClientTSMs, Accepted: false, ReceivedAt: ctx.Now,
	}
	if err := ctx.World.MovementLogs.Insert(reqKey, entry); err != nil {
		return err
	}

	ctx.Log.Warn().
		Str("identity", fmt.Sprintf("%x", ctx.Caller[:])).
		Str("reason", reason).
		Str("request_id", args.RequestID).
		Uint64("region_id", args.RegionID).
		Msg("movement denied")

	return nil
}
