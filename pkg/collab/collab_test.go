package collab

import (
	"encoding/json"
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

func newContext(w *world.World, now time.Time) *runtime.Context {
	return runtime.New(w, types.Identity{}, now, 1, zerolog.Nop(), nil)
}

func TestFindPathReachesGoal(t *testing.T) {
	blocked := map[HexCoord]bool{{Q: 1, R: 0}: true}
	path := FindPath(HexCoord{0, 0}, HexCoord{2, 0}, blocked, 1000)
	require.NotEmpty(t, path)
	require.Equal(t, HexCoord{0, 0}, path[0])
	require.Equal(t, HexCoord{2, 0}, path[len(path)-1])
}

func TestFindPathReturnsNilWhenGoalBlocked(t *testing.T) {
	blocked := map[HexCoord]bool{{Q: 2, R: 0}: true}
	path := FindPath(HexCoord{0, 0}, HexCoord{2, 0}, blocked, 1000)
	require.Nil(t, path)
}

func TestSampleBiomeIsDeterministic(t *testing.T) {
	a := SampleBiome(42, HexCoord{Q: 10, R: -3})
	b := SampleBiome(42, HexCoord{Q: 10, R: -3})
	require.Equal(t, a, b)
}

func TestAggregateStatsAppliesBonuses(t *testing.T) {
	w := openTestWorld(t)
	ctx := newContext(w, time.Now().UTC())

	stats, err := AggregateStats(ctx, 1, map[string]float64{"max_hp": 20}, map[string]float64{"max_hp": 0.1})
	require.NoError(t, err)
	require.InDelta(t, 132.0, stats.MaxHP, 0.01) // (100+20)*1.1
}

func TestAttackInitiateSchedulesTimer(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	ctx := newContext(w, now)

	args, _ := json.Marshal(AttackInitiateArgs{AttackerID: 1, TargetID: 2, WeaponDefID: 1})
	require.NoError(t, attackInitiate(ctx, args))

	timers, err := w.AttackTimers.All()
	require.NoError(t, err)
	require.Len(t, timers, 1)
	require.Equal(t, uint64(2), timers[0].TargetID)
}

func TestCombatResolveAppliesDamageAfterWindup(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()

	require.NoError(t, w.Resources.Insert(storage.EncodeUint64Key(2), types.ResourceState{
		EntityID: 2, HP: 100,
	}))
	require.NoError(t, w.AttackTimers.Insert(storage.EncodeUint64Key(1), types.AttackTimer{
		ScheduledID: 1, ScheduledAt: now.Add(-time.Second), AttackerID: 1, TargetID: 2,
	}))

	ctx := newContext(w, now)
	_, err := combatResolveTick(ctx)
	require.NoError(t, err)

	impacts, err := w.ImpactTimers.All()
	require.NoError(t, err)
	require.Empty(t, impacts) // windup and impact both due in the same tick

	res, _, _ := w.Resources.Get(storage.EncodeUint64Key(2))
	require.Less(t, res.HP, 100.0)
}

func TestMarketOrderMatchesRestingLiquidity(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	ctx := newContext(w, now)

	sell, _ := json.Marshal(MarketOrderPlaceArgs{ItemDefID: 1, RegionID: 1, Side: types.MarketSideSell, Price: 10, Quantity: 5})
	require.NoError(t, marketOrderPlace(ctx, sell))

	buy, _ := json.Marshal(MarketOrderPlaceArgs{ItemDefID: 1, RegionID: 1, Side: types.MarketSideBuy, Price: 12, Quantity: 3})
	require.NoError(t, marketOrderPlace(ctx, buy))

	fills, err := w.MarketFills.All()
	require.NoError(t, err)
	require.Len(t, fills, 1)
	require.Equal(t, uint32(3), fills[0].Quantity)
	require.Equal(t, uint64(10), fills[0].UnitPrice)

	orders, err := w.MarketOrders.All()
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, uint32(2), orders[0].Quantity) // remaining sell liquidity
}
