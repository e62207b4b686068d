package agents

import (
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

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func openTestWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func newTestContext(w *world.World, now time.Time) *runtime.Context {
	return runtime.New(w, types.Identity{}, now, 1, noopLogger(), nil)
}

func TestPlayerRegenDecaysSatiationEveryTick(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()

	require.NoError(t, w.Resources.Insert(storage.EncodeUint64Key(1), types.ResourceState{
		EntityID:  1,
		HP:        50,
		Stamina:   50,
		Satiation: 10,
		RegenTS:   now.Add(-2 * time.Second),
	}))

	ctx := newTestContext(w, now)
	processed, err := playerRegenTick(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), processed)

	got, ok, err := w.Resources.Get(storage.EncodeUint64Key(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 9.0, got.Satiation)
	require.Equal(t, 55.0, got.HP) // no recent combat -> passive bonus applies
}

func TestPlayerRegenWithheldDuringCombatCooldown(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()

	require.NoError(t, w.Resources.Insert(storage.EncodeUint64Key(2), types.ResourceState{
		EntityID:  2,
		HP:        50,
		Stamina:   50,
		Satiation: 10,
		RegenTS:   now.Add(-2 * time.Second),
	}))
	require.NoError(t, w.CombatStates.Insert(storage.EncodeUint64Key(2), types.CombatState{
		EntityID:              2,
		LastAttackedTimestamp: now.Add(-1 * time.Second),
	}))

	ctx := newTestContext(w, now)
	_, err := playerRegenTick(ctx)
	require.NoError(t, err)

	got, _, err := w.Resources.Get(storage.EncodeUint64Key(2))
	require.NoError(t, err)
	require.Equal(t, 50.0, got.HP) // still in cooldown, no passive bonus
	require.Equal(t, 9.0, got.Satiation)
}

func TestAutoLogoutClosesIdleSessions(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()

	require.NoError(t, w.Sessions.Insert([]byte("idle"), types.SessionState{
		SessionID:      "idle",
		Status:         types.SessionStatusActive,
		LastActivityAt: now.Add(-20 * time.Minute),
	}))
	require.NoError(t, w.Sessions.Insert([]byte("fresh"), types.SessionState{
		SessionID:      "fresh",
		Status:         types.SessionStatusActive,
		LastActivityAt: now.Add(-time.Minute),
	}))

	ctx := newTestContext(w, now)
	processed, err := autoLogoutTick(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), processed)

	idle, _, _ := w.Sessions.Get([]byte("idle"))
	require.Equal(t, types.SessionStatusClosed, idle.Status)

	fresh, _, _ := w.Sessions.Get([]byte("fresh"))
	require.Equal(t, types.SessionStatusActive, fresh.Status)
}

func TestDayNightAdvancesPhaseAfterQuarterCycle(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()

	ctx := newTestContext(w, now)
	_, err := dayNightTick(ctx)
	require.NoError(t, err)

	state, ok, err := w.DayNight.Get(storage.EncodeUint64Key(0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.DayPhaseDawn, state.Phase)

	quarterCycle := time.Duration(state.CycleLengthMicros/4) * time.Microsecond
	later := now.Add(quarterCycle + time.Second)
	ctx2 := newTestContext(w, later)
	_, err = dayNightTick(ctx2)
	require.NoError(t, err)

	state, _, _ = w.DayNight.Get(storage.EncodeUint64Key(0))
	require.Equal(t, types.DayPhaseDay, state.Phase)
}
