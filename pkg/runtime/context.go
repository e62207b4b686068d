package runtime

import (
	"math/rand"
	"time"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/types"
	"github.com/cuemby/hexwarren/pkg/world"
	"github.com/rs/zerolog"
)

// Context is the one argument every reducer and agent work function
// receives. It is deliberately the only way reducer code reaches tables,
// randomness, or the clock, so a reducer's effects stay reproducible from
// its committed Command payload.
type Context struct {
	World  *world.World
	Caller types.Identity // zero for agent-invoked (non-player) calls
	Now    time.Time
	Rand   *rand.Rand
	Log    zerolog.Logger
	broker *events.Broker
}

// New builds a Context. seed should come from the committed Command so
// replay produces identical random draws.
func New(w *world.World, caller types.Identity, now time.Time, seed int64, log zerolog.Logger, broker *events.Broker) *Context {
	return &Context{
		World:  w,
		Caller: caller,
		Now:    now,
		Rand:   rand.New(rand.NewSource(seed)),
		Log:    log,
		broker: broker,
	}
}

// Publish emits a table-change event if an event broker is attached.
func (c *Context) Publish(table string, op events.Op, row any) {
	if c.broker == nil {
		return
	}
	c.broker.Publish(&events.Event{Table: table, Op: op, Row: row, Timestamp: c.Now})
}

// Roll returns a uniform float64 in [0, 1), the Go analogue of the
// original reducer runtime's `ctx.random() % 1_000_000` scaled roll.
func (c *Context) Roll() float64 {
	return c.Rand.Float64()
}
