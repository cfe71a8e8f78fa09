package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Breakout/internal/core"
	"github.com/dkeye/Breakout/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var _ core.HierarchyStore = (*Redis)(nil)

// Redis keeps each MainRoom as a JSON document under <prefix>main:<id> and a
// creation-ordered index in the sorted set <prefix>main.
// The revision is a counter stored inside the document; writes go through
// WATCH/MULTI so a concurrent writer turns into domain.ErrConflict.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (s *Redis) indexKey() string { return s.prefix + "main" }

func (s *Redis) docKey(id domain.RoomID) string { return s.prefix + "main:" + string(id) }

func (s *Redis) Insert(ctx context.Context, room domain.MainRoom) (domain.Revision, error) {
	key := s.docKey(room.ID)
	doc := room.Clone()
	doc.Revision = formatRev(1)
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("insert %s: encode: %w", room.ID, err)
	}

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("already exists: %w", domain.ErrConflict)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, s.indexKey(), redis.Z{
				Score:  float64(room.CreatedAt.UnixMicro()),
				Member: string(room.ID),
			})
			return nil
		})
		return err
	}, key)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", room.ID, mapTxErr(err))
	}
	log.Debug().Str("module", "store.redis").Str("room", string(room.ID)).Msg("inserted main room")
	return doc.Revision, nil
}

func (s *Redis) Get(ctx context.Context, id domain.RoomID) (domain.MainRoom, domain.Revision, error) {
	data, err := s.rdb.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.MainRoom{}, "", fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.MainRoom{}, "", fmt.Errorf("get %s: %w", id, err)
	}
	room, err := decodeRoom(data)
	if err != nil {
		return domain.MainRoom{}, "", fmt.Errorf("get %s: %w", id, err)
	}
	return room, room.Revision, nil
}

func (s *Redis) Put(ctx context.Context, room domain.MainRoom, rev domain.Revision) (domain.Revision, error) {
	want, err := parseRev(rev)
	if err != nil {
		return "", err
	}
	key := s.docKey(room.ID)
	next := formatRev(want + 1)

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeRoom(data)
		if err != nil {
			return err
		}
		if cur.Revision != rev {
			return fmt.Errorf("have revision %s, got %s: %w", cur.Revision, rev, domain.ErrConflict)
		}

		doc := room.Clone()
		doc.Revision = next
		out, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", room.ID, mapTxErr(err))
	}
	log.Debug().Str("module", "store.redis").Str("room", string(room.ID)).Str("rev", string(next)).Msg("updated main room")
	return next, nil
}

func (s *Redis) ListAll(ctx context.Context) ([]domain.MainRoom, error) {
	ids, err := s.rdb.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.MainRoom{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(domain.RoomID(id))
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]domain.MainRoom, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a document; cleaned up out of band.
			log.Warn().Str("module", "store.redis").Str("room", ids[i]).Msg("indexed room has no document")
			continue
		}
		room, err := decodeRoom([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", ids[i], err)
		}
		out = append(out, room)
	}
	return out, nil
}

func decodeRoom(data []byte) (domain.MainRoom, error) {
	var room domain.MainRoom
	if err := json.Unmarshal(data, &room); err != nil {
		return domain.MainRoom{}, fmt.Errorf("decode: %w", err)
	}
	if room.BreakoutIDs == nil {
		room.BreakoutIDs = []domain.RoomID{}
	}
	return room, nil
}

func mapTxErr(err error) error {
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("concurrent write: %w", domain.ErrConflict)
	}
	return err
}
