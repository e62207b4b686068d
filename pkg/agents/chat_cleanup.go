package agents

import (
	"time"

	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

const defaultChatRetentionSeconds = 3600

func init() {
	Register(Def{
		Name:              "chat_cleanup",
		DefaultTickMillis: 30000,
		Work:              chatCleanupTick,
	})
}

func chatCleanupTick(ctx *runtime.Context) (uint64, error) {
	retention := time.Duration(balanceParamInt(ctx, "chat_retention_seconds", defaultChatRetentionSeconds)) * time.Second

	stale, err := ctx.World.ChatMessages.Filter(func(m types.ChatMessage) bool {
		return ctx.Now.Sub(m.SentAt) > retention
	})
	if err != nil {
		return 0, err
	}

	var processed uint64
	for _, m := range stale {
		if err := ctx.World.ChatMessages.Delete(storage.EncodeUint64Key(m.MessageID)); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}
