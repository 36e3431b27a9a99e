package syncaudit

import (
	"context"
	"database/sql"
	"time"

	"gameroomgo/internal/room"

	"go.uber.org/zap"
)

const maxBatch = 100

// Run drains the lifecycle feed and persists every event. The feed is
// buffered and lossy on overflow, so the writer can fall behind without ever
// slowing a room operation down.
func Run(ctx context.Context, db *sql.DB, feed *room.Feed) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-feed.Events():
				batch := drainReady(feed, []room.LifecycleEvent{ev})
				if err := persist(ctx, db, batch); err != nil {
					zap.L().Warn("syncaudit.persist", zap.Error(err))
					time.Sleep(time.Second)
				}
			}
		}
	}()
}

func drainReady(feed *room.Feed, batch []room.LifecycleEvent) []room.LifecycleEvent {
	for len(batch) < maxBatch {
		select {
		case ev := <-feed.Events():
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func persist(ctx context.Context, db *sql.DB, events []room.LifecycleEvent) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO room_events (room_code, username, kind, occurred_at)
	             VALUES ($1, $2, $3, $4)
	             ON CONFLICT DO NOTHING`
	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, ins, ev.Room, ev.Username, ev.Kind, ev.At); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
