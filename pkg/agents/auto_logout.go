package agents

import (
	"strconv"
	"time"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/types"
)

const defaultAutoLogoutSeconds = 600

func init() {
	Register(Def{
		Name:              "auto_logout",
		DefaultTickMillis: 5000,
		Work:              autoLogoutTick,
	})
}

func autoLogoutTick(ctx *runtime.Context) (uint64, error) {
	threshold := time.Duration(balanceParamInt(ctx, "auto_logout_seconds", defaultAutoLogoutSeconds)) * time.Second

	sessions, err := ctx.World.Sessions.Filter(func(s types.SessionState) bool {
		return s.Status == types.SessionStatusActive
	})
	if err != nil {
		return 0, err
	}

	var processed uint64
	for _, s := range sessions {
		if ctx.Now.Sub(s.LastActivityAt) < threshold {
			continue
		}
		s.Status = types.SessionStatusClosed
		s.ClosedAt = ctx.Now
		if err := ctx.World.Sessions.Update([]byte(s.SessionID), s); err != nil {
			return processed, err
		}
		ctx.Publish("sessions", events.OpUpdate, s)
		processed++
	}
	return processed, nil
}

// balanceParamInt reads a dotted-name BalanceParams integer knob, falling
// back to def when the row is absent or unparsable.
func balanceParamInt(ctx *runtime.Context, key string, def int64) int64 {
	row, ok, err := ctx.World.BalanceParams.Get([]byte(key))
	if err != nil || !ok {
		return def
	}
	if v, parseErr := strconv.ParseInt(row.Value, 10, 64); parseErr == nil {
		return v
	}
	return def
}
