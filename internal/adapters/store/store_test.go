package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Breakout/internal/core"
	"github.com/dkeye/Breakout/internal/domain"
)

func newRedisStore(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "test:")
}

func stores(t *testing.T) map[string]core.HierarchyStore {
	return map[string]core.HierarchyStore{
		"memory": NewMemory(),
		"redis":  newRedisStore(t),
	}
}

func TestInsertGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rev, err := s.Insert(ctx, domain.NewMainRoom("M1", "Standup"))
			require.NoError(t, err)
			require.NotEmpty(t, rev)

			got, gotRev, err := s.Get(ctx, "M1")
			require.NoError(t, err)
			assert.Equal(t, rev, gotRev)
			assert.Equal(t, rev, got.Revision)
			assert.Equal(t, domain.RoomID("M1"), got.ID)
			assert.Equal(t, []domain.RoomID{}, got.BreakoutIDs)

			_, err = s.Insert(ctx, domain.NewMainRoom("M1", "again"))
			assert.ErrorIs(t, err, domain.ErrConflict)
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Get(context.Background(), "nope")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestPutRevisions(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Insert(ctx, domain.NewMainRoom("M1", "Standup"))
			require.NoError(t, err)

			room, stale, err := s.Get(ctx, "M1")
			require.NoError(t, err)

			room.AddBreakout("B1")
			next, err := s.Put(ctx, room, stale)
			require.NoError(t, err)
			assert.NotEqual(t, stale, next)

			room.AddBreakout("B2")
			_, err = s.Put(ctx, room, stale)
			assert.ErrorIs(t, err, domain.ErrConflict)

			got, rev, err := s.Get(ctx, "M1")
			require.NoError(t, err)
			assert.Equal(t, next, rev)
			assert.Equal(t, []domain.RoomID{"B1"}, got.BreakoutIDs)
		})
	}
}

func TestPutMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Put(context.Background(), domain.NewMainRoom("ghost", ""), "1")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestListAllKeepsCreationOrder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now()
			for i, id := range []domain.RoomID{"M1", "M2", "M3"} {
				r := domain.NewMainRoom(id, "")
				r.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
				_, err := s.Insert(ctx, r)
				require.NoError(t, err)
			}
			all, err := s.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, domain.RoomID("M1"), all[0].ID)
			assert.Equal(t, domain.RoomID("M3"), all[2].ID)
		})
	}
}

func TestRedisListSkipsDanglingIndex(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, domain.NewMainRoom("M1", ""))
	require.NoError(t, err)
	require.NoError(t, s.rdb.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: "gone"}).Err())

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.RoomID("M1"), all[0].ID)
}
