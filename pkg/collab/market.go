package collab

import (
	"encoding/json"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

func init() {
	runtime.Register("market_order_place", marketOrderPlace)
}

// MarketOrderPlaceArgs submits a resting order; it is matched immediately
// against compatible opposite-side orders in the same item/region before
// any unfilled remainder rests in the book.
type MarketOrderPlaceArgs struct {
	ItemDefID uint64          `json:"item_def_id"`
	RegionID  uint32          `json:"region_id"`
	Side      types.MarketSide `json:"side"`
	Price     uint64          `json:"price"`
	Quantity  uint32          `json:"quantity"`
}

func marketOrderPlace(ctx *runtime.Context, raw json.RawMessage) error {
	var args MarketOrderPlaceArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode market_order_place args")
	}
	if args.Quantity == 0 {
		return runtime.NewError(runtime.KindInvalidArgument, "quantity must be positive")
	}
	if args.Side != types.MarketSideBuy && args.Side != types.MarketSideSell {
		return runtime.NewError(runtime.KindInvalidArgument, "side must be buy or sell")
	}

	ownerEntity, err := callerEntity(ctx)
	if err != nil {
		return err
	}

	opposingSide := types.MarketSideSell
	if args.Side == types.MarketSideSell {
		opposingSide = types.MarketSideBuy
	}

	candidates, err := ctx.World.MarketOrders.Filter(func(o types.MarketOrder) bool {
		if o.ItemDefID != args.ItemDefID || o.RegionID != args.RegionID || o.Side != opposingSide {
			return false
		}
		if args.Side == types.MarketSideBuy {
			return o.Price <= args.Price
		}
		return o.Price >= args.Price
	})
	if err != nil {
		return err
	}
	sortOrdersByBestPrice(candidates, args.Side)

	remaining := args.Quantity
	for _, resting := range candidates {
		if remaining == 0 {
			break
		}
		fillQty := remaining
		if fillQty > resting.Quantity {
			fillQty = resting.Quantity
		}

		fillID, err := ctx.World.Seq.Next("market_fills")
		if err != nil {
			return err
		}
		// The taker's own order id is always 0 in the fill record: any
		// unfilled remainder is rested, and given an id, only after matching.
		var buyOrderID, sellOrderID uint64
		if args.Side == types.MarketSideBuy {
			sellOrderID = resting.OrderID
		} else {
			buyOrderID = resting.OrderID
		}
		fill := types.MarketFill{
			FillID: fillID, ItemDefID: args.ItemDefID, RegionID: args.RegionID,
			BuyOrderID: buyOrderID, SellOrderID: sellOrderID,
			Quantity: fillQty, UnitPrice: resting.Price, FilledAt: ctx.Now,
		}
		if err := ctx.World.MarketFills.Insert(storage.EncodeUint64Key(fillID), fill); err != nil {
			return err
		}
		ctx.Publish("market_fills", events.OpInsert, fill)

		resting.Quantity -= fillQty
		key := storage.EncodeUint64Key(resting.OrderID)
		if resting.Quantity == 0 {
			if err := ctx.World.MarketOrders.Delete(key); err != nil {
				return err
			}
		} else if err := ctx.World.MarketOrders.Update(key, resting); err != nil {
			return err
		}
		remaining -= fillQty
	}

	if remaining > 0 {
		id, err := ctx.World.Seq.Next("market_orders")
		if err != nil {
			return err
		}
		order := types.MarketOrder{
			OrderID: id, ItemDefID: args.ItemDefID, RegionID: args.RegionID,
			Side: args.Side, Price: args.Price, Quantity: remaining,
			OwnerEntityID: ownerEntity, CreatedAt: ctx.Now,
		}
		if err := ctx.World.MarketOrders.Insert(storage.EncodeUint64Key(id), order); err != nil {
			return err
		}
		ctx.Publish("market_orders", events.OpInsert, order)
	}
	return nil
}

// sortOrdersByBestPrice orders resting candidates so the best fill for
// the incoming order (lowest ask for a buy, highest bid for a sell) is
// matched first.
func sortOrdersByBestPrice(orders []types.MarketOrder, incomingSide types.MarketSide) {
	for i := 1; i < len(orders); i++ {
		for j := i; j > 0; j-- {
			better := orders[j].Price < orders[j-1].Price
			if incomingSide == types.MarketSideSell {
				better = orders[j].Price > orders[j-1].Price
			}
			if !better {
				break
			}
			orders[j], orders[j-1] = orders[j-1], orders[j]
		}
	}
}

func callerEntity(ctx *runtime.Context) (uint64, error) {
	var id uint64
	for i := 0; i < 8; i++ {
		id = (id << 8) | uint64(ctx.Caller[i])
	}
	return id, nil
}
