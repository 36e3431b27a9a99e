package syncstats

import (
	"context"
	"time"

	"gameroomgo/internal/room"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const hashPrefix = "room:"

// Run mirrors a snapshot of every live room into Redis on a fixed interval
// so dashboards can observe rooms without touching the registry. The mirror
// is an observer only; nothing in the session core reads it back.
func Run(ctx context.Context, rdc *redis.Client, registry *room.Registry, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				syncOnce(ctx, rdc, registry)
			}
		}
	}()
}

func syncOnce(ctx context.Context, rdc *redis.Client, registry *room.Registry) {
	stats := registry.Snapshot()
	if len(stats) == 0 {
		return
	}

	// one pipelined round-trip for all rooms
	pipe := rdc.Pipeline()
	for _, st := range stats {
		pipe.HSet(ctx, hashPrefix+st.Code,
			"players", st.Players,
			"connected", st.Connected,
			"phase", st.Phase,
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Error("syncstats.pipeline", zap.Error(err))
	}
}
