package anticheat

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
	"github.com/cuemby/hexwarren/pkg/world"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func player(b byte) types.Identity {
	var id types.Identity
	id[0] = b
	return id
}

func newContext(w *world.World, caller types.Identity, now time.Time) *runtime.Context {
	return runtime.New(w, caller, now, 1, zerolog.Nop(), nil)
}

func seedSession(t *testing.T, w *world.World, caller types.Identity, regionID uint64) {
	t.Helper()
	sessionID := fmt.Sprintf("sess-%x", caller[:])
	require.NoError(t, w.Sessions.Insert([]byte(sessionID), types.SessionState{
		SessionID: sessionID, Identity: caller, Status: types.SessionStatusActive, RegionID: regionID,
	}))
}

func TestPlayerMoveAcceptsFirstSample(t *testing.T) {
	w := openTestWorld(t)
	caller := player(1)
	seedSession(t, w, caller, 0)
	ctx := newContext(w, caller, time.Now().UTC())

	args, _ := json.Marshal(PlayerMoveArgs{RequestID: "r1", ClientTSMs: 1000, X: 1, Y: 0, Z: 1})
	require.NoError(t, playerMove(ctx, args))

	actor, ok, err := w.MovementActors.Get(caller[:])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1000), actor.LastClientTSMs)

	transform, ok, err := w.Transforms.Get(storage.EncodeUint64Key(playerEntity(caller)))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, float32(1), transform.X)
	require.Equal(t, float32(1), transform.Z)
}

func TestPlayerMoveRejectsWithoutActiveSession(t *testing.T) {
	w := openTestWorld(t)
	caller := player(9)
	ctx := newContext(w, caller, time.Now().UTC())

	args, _ := json.Marshal(PlayerMoveArgs{RequestID: "r1", ClientTSMs: 1000, X: 1, Y: 0, Z: 1})
	require.NoError(t, playerMove(ctx, args))

	_, ok, err := w.MovementActors.Get(caller[:])
	require.NoError(t, err)
	require.False(t, ok)

	violations, err := w.MovementViolations.All()
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, "no_active_session", violations[0].Reason)
}

func TestPlayerMoveRejectsRegionMismatch(t *testing.T) {
	w := openTestWorld(t)
	caller := player(10)
	seedSession(t, w, caller, 5)
	ctx := newContext(w, caller, time.Now().UTC())

	args, _ := json.Marshal(PlayerMoveArgs{RequestID: "r1", ClientTSMs: 1000, X: 1, Y: 0, Z: 1, RegionID: 6})
	require.NoError(t, playerMove(ctx, args))

	violations, err := w.MovementViolations.All()
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, "region_mismatch", violations[0].Reason)
}

// JSON cannot carry a literal NaN/Inf, so finitePosition itself is
// exercised directly rather than through the reducer's JSON args.
func TestFinitePositionRejectsNaNAndInf(t *testing.T) {
	require.True(t, finitePosition(1, 2, 3))
	require.False(t, finitePosition(float32(math.NaN()), 0, 0))
	require.False(t, finitePosition(0, float32(math.Inf(1)), 0))
	require.False(t, finitePosition(0, 0, float32(math.Inf(-1))))
}

func TestPlayerMoveRejectsNonMonotonicTimestamp(t *testing.T) {
	w := openTestWorld(t)
	caller := player(2)
	seedSession(t, w, caller, 0)
	ctx := newContext(w, caller, time.Now().UTC())

	first, _ := json.Marshal(PlayerMoveArgs{RequestID: "r1", ClientTSMs: 1000, X: 0, Y: 0, Z: 0})
	require.NoError(t, playerMove(ctx, first))

	second, _ := json.Marshal(PlayerMoveArgs{RequestID: "r2", ClientTSMs: 500, X: 1, Y: 0, Z: 0})
	require.NoError(t, playerMove(ctx, second))

	violations, err := w.MovementViolations.All()
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, "non_monotonic_timestamp", violations[0].Reason)
}

func TestPlayerMoveRejectsExcessiveDistance(t *testing.T) {
	w := openTestWorld(t)
	caller := player(3)
	seedSession(t, w, caller, 0)
	ctx := newContext(w, caller, time.Now().UTC())

	first, _ := json.Marshal(PlayerMoveArgs{RequestID: "r1", ClientTSMs: 1000, X: 0, Y: 0, Z: 0})
	require.NoError(t, playerMove(ctx, first))

	second, _ := json.Marshal(PlayerMoveArgs{RequestID: "r2", ClientTSMs: 2000, X: 100, Y: 0, Z: 0})
	require.NoError(t, playerMove(ctx, second))

	violations, err := w.MovementViolations.All()
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, "distance_exceeded", violations[0].Reason)
}

func TestPlayerMoveDuplicateRequestIsIdempotent(t *testing.T) {
	w := openTestWorld(t)
	caller := player(4)
	seedSession(t, w, caller, 0)
	ctx := newContext(w, caller, time.Now().UTC())

	args, _ := json.Marshal(PlayerMoveArgs{RequestID: "dup", ClientTSMs: 1000, X: 1, Y: 1, Z: 1})
	require.NoError(t, playerMove(ctx, args))
	require.NoError(t, playerMove(ctx, args)) // replay of the same request_id

	actor, _, _ := w.MovementActors.Get(caller[:])
	require.Equal(t, int64(1000), actor.LastClientTSMs)
}
