package building

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

func newContext(w *world.World, caller types.Identity, now time.Time) *runtime.Context {
	return runtime.New(w, caller, now, 1, zerolog.Nop(), nil)
}

func player(b byte) types.Identity {
	var id types.Identity
	id[0] = b
	return id
}

func TestBuildingPlaceInstantBuild(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(1)
	entity, _, _ := entityID(nil, caller)

	require.NoError(t, w.BuildingDefs.Insert(storage.EncodeUint64Key(1), types.BuildingDef{
		BuildingDefID: 1, MaxHP: 100, InstantBuild: true,
		Footprint: []types.FootprintCell{{DX: 0, DZ: 0}},
	}))
	require.NoError(t, w.Transforms.Insert(storage.EncodeUint64Key(entity), types.TransformState{
		EntityID: entity, DimensionID: 1, X: 0, Y: 0, Z: 0,
	}))

	ctx := newContext(w, caller, now)
	args, _ := json.Marshal(BuildingPlaceArgs{BuildingDefID: 1, HexX: 0, HexZ: 0, DimensionID: 1})
	require.NoError(t, buildingPlace(ctx, args))

	all, err := w.Buildings.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, types.BuildingStatusActive, all[0].Status)

	footprints, err := w.Footprints.All()
	require.NoError(t, err)
	require.Len(t, footprints, 1)
}

func TestBuildingPlaceRejectsTooFar(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(2)
	entity, _, _ := entityID(nil, caller)

	require.NoError(t, w.BuildingDefs.Insert(storage.EncodeUint64Key(1), types.BuildingDef{
		BuildingDefID: 1, MaxHP: 100, InstantBuild: true,
		Footprint: []types.FootprintCell{{DX: 0, DZ: 0}},
	}))
	require.NoError(t, w.Transforms.Insert(storage.EncodeUint64Key(entity), types.TransformState{
		EntityID: entity, DimensionID: 1, X: 0, Y: 0, Z: 0,
	}))

	ctx := newContext(w, caller, now)
	args, _ := json.Marshal(BuildingPlaceArgs{BuildingDefID: 1, HexX: 50, HexZ: 50, DimensionID: 1})
	err := buildingPlace(ctx, args)
	require.Error(t, err)
	require.Equal(t, runtime.KindPrecondition, runtime.KindOf(err))
}

func TestBuildingDecayDrawsClaimSupplies(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()

	require.NoError(t, w.Buildings.Insert(storage.EncodeUint64Key(1), types.BuildingState{
		BuildingID: 1, ClaimID: 7, HP: 100, MaxHP: 100,
		Status: types.BuildingStatusActive, PlacedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, w.ClaimLocals.Insert(storage.EncodeUint64Key(7), types.ClaimLocalState{
		ClaimID: 7, Supplies: 100,
	}))

	ctx := newContext(w, types.Identity{}, now)
	processed, err := buildingDecayTick(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), processed)

	local, _, _ := w.ClaimLocals.Get(storage.EncodeUint64Key(7))
	require.Less(t, local.Supplies, uint32(100))

	b, _, _ := w.Buildings.Get(storage.EncodeUint64Key(1))
	require.Equal(t, int32(100), b.HP) // repaired to cap, no decay applied
}

func seedPlayerContainer(t *testing.T, w *world.World, containerID, ownerEntity uint64) {
	t.Helper()
	require.NoError(t, w.Containers.Insert(storage.EncodeUint64Key(containerID), types.InventoryContainer{
		ContainerID: containerID, Kind: types.ContainerKindPlayer, OwnerEntity: ownerEntity, SlotCount: 8,
	}))
}

func seedItemStack(t *testing.T, w *world.World, containerID, slotIndex uint32, instanceID, itemDefID uint64, quantity uint32) {
	t.Helper()
	require.NoError(t, w.Instances.Insert(storage.EncodeUint64Key(instanceID), types.ItemInstance{
		ItemInstanceID: instanceID, ItemDefID: itemDefID, Durability: -1,
	}))
	require.NoError(t, w.Stacks.Insert(storage.EncodeUint64Key(instanceID), types.ItemStack{
		ItemInstanceID: instanceID, Quantity: quantity,
	}))
	key := []byte{
		byte(uint64(containerID) >> 56), byte(uint64(containerID) >> 48), byte(uint64(containerID) >> 40), byte(uint64(containerID) >> 32),
		byte(uint64(containerID) >> 24), byte(uint64(containerID) >> 16), byte(uint64(containerID) >> 8), byte(uint64(containerID)),
		byte(slotIndex >> 24), byte(slotIndex >> 16), byte(slotIndex >> 8), byte(slotIndex),
	}
	require.NoError(t, w.Slots.Insert(key, types.InventorySlot{
		ContainerID: uint64(containerID), SlotIndex: slotIndex, ItemInstanceID: instanceID,
	}))
}

func TestAddMaterialsAndAdvancePromotesBuilding(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(3)
	entity, _, _ := entityID(nil, caller)

	require.NoError(t, w.BuildingDefs.Insert(storage.EncodeUint64Key(9), types.BuildingDef{
		BuildingDefID: 9, MaxHP: 100, InstantBuild: false, RequiredActions: 1,
		Footprint:         []types.FootprintCell{{DX: 0, DZ: 0}},
		RequiredMaterials: []types.MaterialCost{{ItemDefID: 50, Quantity: 3}},
	}))
	require.NoError(t, w.ItemDefs.Insert(storage.EncodeUint64Key(50), types.ItemDef{
		ItemDefID: 50, Name: "Lumber", MaxStack: 99, MaxDurability: -1,
	}))
	require.NoError(t, w.Transforms.Insert(storage.EncodeUint64Key(entity), types.TransformState{
		EntityID: entity, DimensionID: 1, X: 0, Y: 0, Z: 0,
	}))
	seedPlayerContainer(t, w, 1, entity)
	seedItemStack(t, w, 1, 0, 100, 50, 3)

	ctx := newContext(w, caller, now)
	placeArgs, _ := json.Marshal(BuildingPlaceArgs{BuildingDefID: 9, HexX: 0, HexZ: 0, DimensionID: 1})
	require.NoError(t, buildingPlace(ctx, placeArgs))

	sites, err := w.ProjectSites.All()
	require.NoError(t, err)
	require.Len(t, sites, 1)
	site := sites[0]

	addArgs, _ := json.Marshal(AddMaterialsArgs{ProjectSiteID: site.ProjectSiteID, ItemDefID: 50, Quantity: 3})
	require.NoError(t, addMaterials(ctx, addArgs))

	advanceArgs, _ := json.Marshal(BuildingAdvanceArgs{ProjectSiteID: site.ProjectSiteID, Actions: 1})
	require.NoError(t, buildingAdvance(ctx, advanceArgs))

	_, ok, err := w.ProjectSites.Get(storage.EncodeUint64Key(site.ProjectSiteID))
	require.NoError(t, err)
	require.False(t, ok)

	buildings, err := w.Buildings.All()
	require.NoError(t, err)
	require.Len(t, buildings, 1)
	require.Equal(t, types.BuildingStatusActive, buildings[0].Status)
}

func TestBuildingDeconstructRefundsAndDeletesRow(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(4)
	entity, _, _ := entityID(nil, caller)

	require.NoError(t, w.BuildingDefs.Insert(storage.EncodeUint64Key(11), types.BuildingDef{
		BuildingDefID: 11, MaxHP: 100,
		DeconstructRefund: []types.MaterialCost{{ItemDefID: 50, Quantity: 2}},
	}))
	require.NoError(t, w.ItemDefs.Insert(storage.EncodeUint64Key(50), types.ItemDef{
		ItemDefID: 50, Name: "Lumber", MaxStack: 99, MaxDurability: -1,
	}))
	require.NoError(t, w.Buildings.Insert(storage.EncodeUint64Key(20), types.BuildingState{
		BuildingID: 20, BuildingDefID: 11, OwnerEntity: entity, HP: 100, MaxHP: 100,
		Status: types.BuildingStatusActive, PlacedAt: now,
	}))
	require.NoError(t, w.Footprints.Insert(footprintKey(1, 0, 0), types.BuildingFootprint{
		DimensionID: 1, TileX: 0, TileZ: 0, OwnerID: 20,
	}))
	seedPlayerContainer(t, w, 2, entity)

	ctx := newContext(w, caller, now)
	args, _ := json.Marshal(BuildingDeconstructArgs{BuildingID: 20})
	require.NoError(t, buildingDeconstruct(ctx, args))

	_, ok, err := w.Buildings.Get(storage.EncodeUint64Key(20))
	require.NoError(t, err)
	require.False(t, ok)

	footprints, err := w.Footprints.All()
	require.NoError(t, err)
	require.Len(t, footprints, 0)

	slots, err := w.Slots.Filter(func(s types.InventorySlot) bool { return s.ContainerID == 2 })
	require.NoError(t, err)
	require.Len(t, slots, 1)
}

func TestBuildingMoveRelocatesFootprint(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()
	caller := player(5)
	entity, _, _ := entityID(nil, caller)

	require.NoError(t, w.BuildingDefs.Insert(storage.EncodeUint64Key(12), types.BuildingDef{
		BuildingDefID: 12, MaxHP: 100, CanMove: true,
		Footprint: []types.FootprintCell{{DX: 0, DZ: 0}},
	}))
	require.NoError(t, w.Transforms.Insert(storage.EncodeUint64Key(entity), types.TransformState{
		EntityID: entity, DimensionID: 1, X: 1, Y: 0, Z: 1,
	}))
	require.NoError(t, w.Buildings.Insert(storage.EncodeUint64Key(30), types.BuildingState{
		BuildingID: 30, BuildingDefID: 12, OwnerEntity: entity, DimensionID: 1,
		HexX: 0, HexZ: 0, HP: 100, MaxHP: 100, Status: types.BuildingStatusActive, PlacedAt: now,
	}))
	require.NoError(t, w.Footprints.Insert(footprintKey(1, 0, 0), types.BuildingFootprint{
		DimensionID: 1, TileX: 0, TileZ: 0, OwnerID: 30,
	}))

	ctx := newContext(w, caller, now)
	args, _ := json.Marshal(BuildingMoveArgs{BuildingID: 30, HexX: 1, HexZ: 1, DimensionID: 1})
	require.NoError(t, buildingMove(ctx, args))

	_, ok, err := w.Footprints.Get(footprintKey(1, 0, 0))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = w.Footprints.Get(footprintKey(1, 1, 1))
	require.NoError(t, err)
	require.True(t, ok)

	b, ok, err := w.Buildings.Get(storage.EncodeUint64Key(30))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(1), b.HexX)
	require.Equal(t, int32(1), b.HexZ)
}

func TestBuildingDecayWildernessWithoutClaim(t *testing.T) {
	w := openTestWorld(t)
	now := time.Now().UTC()

	require.NoError(t, w.Buildings.Insert(storage.EncodeUint64Key(2), types.BuildingState{
		BuildingID: 2, ClaimID: 0, HP: 100, MaxHP: 100,
		Status: types.BuildingStatusActive, PlacedAt: now.Add(-3 * time.Hour),
	}))

	ctx := newContext(w, types.Identity{}, now)
	_, err := buildingDecayTick(ctx)
	require.NoError(t, err)

	b, _, _ := w.Buildings.Get(storage.EncodeUint64Key(2))
	require.Less(t, b.HP, int32(100))
}
