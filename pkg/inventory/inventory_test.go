package inventory

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

func newContext(w *world.World) *runtime.Context {
	return runtime.New(w, types.Identity{}, time.Now().UTC(), 1, zerolog.Nop(), nil)
}

func seedContainer(t *testing.T, w *world.World, id uint64, slots uint32) {
	t.Helper()
	require.NoError(t, w.Containers.Insert(storage.EncodeUint64Key(id), types.InventoryContainer{
		ContainerID: id, Kind: types.ContainerKindPlayer, SlotCount: slots,
	}))
}

func TestItemPickUpFillsEmptySlot(t *testing.T) {
	w := openTestWorld(t)
	seedContainer(t, w, 1, 4)
	require.NoError(t, w.ItemDefs.Insert(storage.EncodeUint64Key(10), types.ItemDef{
		ItemDefID: 10, Name: "Wood", MaxStack: 50, MaxDurability: -1,
	}))
	require.NoError(t, w.Instances.Insert(storage.EncodeUint64Key(1), types.ItemInstance{
		ItemInstanceID: 1, ItemDefID: 10, Durability: -1,
	}))
	require.NoError(t, w.Stacks.Insert(storage.EncodeUint64Key(1), types.ItemStack{
		ItemInstanceID: 1, Quantity: 20,
	}))

	ctx := newContext(w)
	args, _ := json.Marshal(ItemPickUpArgs{ContainerID: 1, ItemInstanceID: 1, Quantity: 20})
	require.NoError(t, itemPickUp(ctx, args))

	_, ok, err := w.Stacks.Get(storage.EncodeUint64Key(1))
	require.NoError(t, err)
	require.False(t, ok) // fully consumed source stack removed

	slot, ok, err := w.Slots.Get(slotKey(1, 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.NotZero(t, slot.ItemInstanceID)
}

func TestItemStackMoveSwapsOnTypeMismatch(t *testing.T) {
	w := openTestWorld(t)
	seedContainer(t, w, 2, 4)
	require.NoError(t, w.ItemDefs.Insert(storage.EncodeUint64Key(1), types.ItemDef{ItemDefID: 1, MaxStack: 10, MaxDurability: -1}))
	require.NoError(t, w.ItemDefs.Insert(storage.EncodeUint64Key(2), types.ItemDef{ItemDefID: 2, MaxStack: 10, MaxDurability: -1}))

	require.NoError(t, w.Instances.Insert(storage.EncodeUint64Key(100), types.ItemInstance{ItemInstanceID: 100, ItemDefID: 1, Durability: -1}))
	require.NoError(t, w.Stacks.Insert(storage.EncodeUint64Key(100), types.ItemStack{ItemInstanceID: 100, Quantity: 5}))
	require.NoError(t, w.Slots.Insert(slotKey(2, 0), types.InventorySlot{ContainerID: 2, SlotIndex: 0, ItemInstanceID: 100}))

	require.NoError(t, w.Instances.Insert(storage.EncodeUint64Key(200), types.ItemInstance{ItemInstanceID: 200, ItemDefID: 2, Durability: -1}))
	require.NoError(t, w.Stacks.Insert(storage.EncodeUint64Key(200), types.ItemStack{ItemInstanceID: 200, Quantity: 3}))
	require.NoError(t, w.Slots.Insert(slotKey(2, 1), types.InventorySlot{ContainerID: 2, SlotIndex: 1, ItemInstanceID: 200}))

	ctx := newContext(w)
	args, _ := json.Marshal(ItemStackMoveArgs{ContainerID: 2, FromSlotIndex: 0, ToSlotIndex: 1, Quantity: 5})
	require.NoError(t, itemStackMove(ctx, args))

	from, _, _ := w.Slots.Get(slotKey(2, 0))
	to, _, _ := w.Slots.Get(slotKey(2, 1))
	require.Equal(t, uint64(200), from.ItemInstanceID)
	require.Equal(t, uint64(100), to.ItemInstanceID)
}

func TestItemStackMoveMergesSameType(t *testing.T) {
	w := openTestWorld(t)
	seedContainer(t, w, 3, 4)
	require.NoError(t, w.ItemDefs.Insert(storage.EncodeUint64Key(1), types.ItemDef{ItemDefID: 1, MaxStack: 20, MaxDurability: -1}))

	require.NoError(t, w.Instances.Insert(storage.EncodeUint64Key(100), types.ItemInstance{ItemInstanceID: 100, ItemDefID: 1, Durability: -1}))
	require.NoError(t, w.Stacks.Insert(storage.EncodeUint64Key(100), types.ItemStack{ItemInstanceID: 100, Quantity: 5}))
	require.NoError(t, w.Slots.Insert(slotKey(3, 0), types.InventorySlot{ContainerID: 3, SlotIndex: 0, ItemInstanceID: 100}))

	require.NoError(t, w.Instances.Insert(storage.EncodeUint64Key(200), types.ItemInstance{ItemInstanceID: 200, ItemDefID: 1, Durability: -1}))
	require.NoError(t, w.Stacks.Insert(storage.EncodeUint64Key(200), types.ItemStack{ItemInstanceID: 200, Quantity: 3}))
	require.NoError(t, w.Slots.Insert(slotKey(3, 1), types.InventorySlot{ContainerID: 3, SlotIndex: 1, ItemInstanceID: 200}))

	ctx := newContext(w)
	args, _ := json.Marshal(ItemStackMoveArgs{ContainerID: 3, FromSlotIndex: 0, ToSlotIndex: 1, Quantity: 5})
	require.NoError(t, itemStackMove(ctx, args))

	target, ok, err := w.Stacks.Get(storage.EncodeUint64Key(200))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(8), target.Quantity)

	from, ok, err := w.Slots.Get(slotKey(3, 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, from.ItemInstanceID)
}
