package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Breakout/internal/core"
)

var _ core.Notifier = (*RedisRelay)(nil)

// RedisRelay publishes events on a redis channel and replays everything
// received on it into a local Hub, so all server instances fan out.
type RedisRelay struct {
	rdb     redis.UniversalClient
	channel string
	local   core.Notifier
}

func NewRedisRelay(rdb redis.UniversalClient, channel string, local core.Notifier) *RedisRelay {
	return &RedisRelay{rdb: rdb, channel: channel, local: local}
}

const publishTimeout = time.Second

// Broadcast publishes in the background and returns immediately.
func (r *RedisRelay) Broadcast(event string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := r.rdb.Publish(ctx, r.channel, event).Err(); err != nil {
			log.Error().Err(err).Str("module", "notify.redis").Str("event", event).Msg("publish failed")
		}
	}()
}

// Run blocks until ctx is done. ready, if non-nil, is closed once the
// subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}
	log.Info().Str("module", "notify.redis").Str("channel", r.channel).Msg("subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.local.Broadcast(msg.Payload)
		}
	}
}
