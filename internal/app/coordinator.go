package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Breakout/internal/core"
	"github.com/dkeye/Breakout/internal/domain"
)

const DefaultListLimit = 20

// Coordinator owns room creation and the live listing. It keeps no state of
// its own between requests.
type Coordinator struct {
	Provider  core.RoomProvider
	Store     core.HierarchyStore
	Notifier  core.Notifier
	Conflicts ConflictPolicy
	ListLimit int
}

func (c *Coordinator) notify(event string) {
	if c.Notifier == nil {
		return
	}
	c.Notifier.Broadcast(event)
}

func (c *Coordinator) policy() ConflictPolicy {
	if c.Conflicts == nil {
		return NoRetry{}
	}
	return c.Conflicts
}

func (c *Coordinator) CreateMainRoom(ctx context.Context, name domain.RoomName) (domain.MainRoom, error) {
	const op = "create main room"
	if err := domain.ValidateRoomName(string(name)); err != nil {
		return domain.MainRoom{}, &domain.RoomError{Kind: domain.KindValidation, Op: op, Err: err}
	}

	pr, err := c.Provider.CreateRoom(ctx, name)
	if err != nil {
		return domain.MainRoom{}, &domain.RoomError{Kind: domain.KindProvider, Op: op, Err: err}
	}

	room := domain.NewMainRoom(pr.ID, pr.Name)
	rev, err := c.Store.Insert(ctx, room)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Str("room", string(pr.ID)).Msg("provider room left without hierarchy document")
		return domain.MainRoom{}, &domain.RoomError{
			Kind:   domain.KindOf(err, domain.KindStore),
			Op:     op,
			RoomID: pr.ID,
			Orphan: pr.ID,
			Err:    err,
		}
	}
	room.Revision = rev

	log.Info().Str("module", "app.coordinator").Str("room", string(room.ID)).Str("name", string(room.Name)).Msg("main room created")
	c.notify(core.EventMainRoomCreated)
	return room, nil
}

func (c *Coordinator) CreateBreakoutRoom(ctx context.Context, name domain.RoomName, parentID domain.RoomID) (domain.MainRoom, error) {
	const op = "create breakout room"
	if parentID == "" {
		return domain.MainRoom{}, &domain.RoomError{
			Kind: domain.KindValidation,
			Op:   op,
			Err:  errors.New("parent room id is required"),
		}
	}
	if err := domain.ValidateRoomName(string(name)); err != nil {
		return domain.MainRoom{}, &domain.RoomError{Kind: domain.KindValidation, Op: op, RoomID: parentID, Err: err}
	}

	pr, err := c.Provider.CreateRoom(ctx, name)
	if err != nil {
		return domain.MainRoom{}, &domain.RoomError{Kind: domain.KindProvider, Op: op, RoomID: parentID, Err: err}
	}

	parent, err := c.update(ctx, parentID, func(m *domain.MainRoom) {
		m.AddBreakout(pr.ID)
	})
	if err != nil {
		log.Error().Err(err).
			Str("module", "app.coordinator").
			Str("parent", string(parentID)).
			Str("room", string(pr.ID)).
			Msg("provider room left without parent link")
		return domain.MainRoom{}, &domain.RoomError{
			Kind:   domain.KindOf(err, domain.KindStore),
			Op:     op,
			RoomID: parentID,
			Orphan: pr.ID,
			Err:    err,
		}
	}

	log.Info().
		Str("module", "app.coordinator").
		Str("parent", string(parentID)).
		Str("room", string(pr.ID)).
		Int("breakouts", len(parent.BreakoutIDs)).
		Msg("breakout room created")
	c.notify(core.EventBreakoutRoomCreated)
	return parent, nil
}

// update is the optimistic read-modify-write on a MainRoom document.
// mutate runs against a fresh read on every attempt.
func (c *Coordinator) update(ctx context.Context, id domain.RoomID, mutate func(*domain.MainRoom)) (domain.MainRoom, error) {
	policy := c.policy()
	for attempt := 0; ; attempt++ {
		room, rev, err := c.Store.Get(ctx, id)
		if err != nil {
			return domain.MainRoom{}, err
		}
		mutate(&room)
		next, err := c.Store.Put(ctx, room, rev)
		if err == nil {
			room.Revision = next
			return room, nil
		}
		if !errors.Is(err, domain.ErrConflict) || !policy.Retry(attempt, err) {
			return domain.MainRoom{}, err
		}
		log.Warn().Err(err).Str("module", "app.coordinator").Str("room", string(id)).Int("attempt", attempt+1).Msg("revision conflict, retrying")
	}
}

// ListActiveRooms reads provider liveness and store topology independently
// and reconciles them. Either read failing fails the call.
func (c *Coordinator) ListActiveRooms(ctx context.Context) ([]domain.LiveRoomView, error) {
	const op = "list active rooms"
	limit := c.ListLimit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		live []domain.ProviderRoom
		docs []domain.MainRoom
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rooms, err := c.Provider.ListRooms(gctx, domain.StatusInProgress, limit)
		if err != nil {
			return &domain.RoomError{Kind: domain.KindProvider, Op: op, Err: err}
		}
		live = rooms
		return nil
	})
	g.Go(func() error {
		all, err := c.Store.ListAll(gctx)
		if err != nil {
			return &domain.RoomError{Kind: domain.KindStore, Op: op, Err: fmt.Errorf("list hierarchy: %w", err)}
		}
		docs = all
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := core.Reconcile(live, docs)
	log.Debug().Str("module", "app.coordinator").Int("live", len(live)).Int("stored", len(docs)).Int("views", len(views)).Msg("rooms reconciled")
	return views, nil
}
