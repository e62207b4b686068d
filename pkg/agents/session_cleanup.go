package agents

import (
	"time"

	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/types"
)

const defaultSessionRetentionSeconds = 86400

func init() {
	Register(Def{
		Name:              "session_cleanup",
		DefaultTickMillis: 60000,
		Work:              sessionCleanupTick,
	})
}

// sessionCleanupTick removes closed SessionState rows past their
// retention window, keeping the table from growing unbounded across a
// long-lived server process.
func sessionCleanupTick(ctx *runtime.Context) (uint64, error) {
	retention := time.Duration(balanceParamInt(ctx, "session_retention_seconds", defaultSessionRetentionSeconds)) * time.Second

	stale, err := ctx.World.Sessions.Filter(func(s types.SessionState) bool {
		return s.Status == types.SessionStatusClosed && ctx.Now.Sub(s.ClosedAt) > retention
	})
	if err != nil {
		return 0, err
	}

	var processed uint64
	for _, s := range stale {
		if err := ctx.World.Sessions.Delete([]byte(s.SessionID)); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}
