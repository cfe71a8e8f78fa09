package core

import "github.com/dkeye/Breakout/internal/domain"

// Reconcile joins provider liveness with store topology.
//
// A main room is kept only if the provider reports it live; its breakouts
// are the stored ids that are live too, named from the provider listing.
// Breakouts of a main room that ended are hidden even when still live.
// Output follows store order.
func Reconcile(live []domain.ProviderRoom, docs []domain.MainRoom) []domain.LiveRoomView {
	names := make(map[domain.RoomID]domain.RoomName, len(live))
	for _, r := range live {
		names[r.ID] = r.Name
	}

	out := make([]domain.LiveRoomView, 0, len(docs))
	for _, doc := range docs {
		name, ok := names[doc.ID]
		if !ok {
			continue
		}
		view := domain.LiveRoomView{
			ID:        doc.ID,
			Name:      name,
			Breakouts: make([]domain.BreakoutRoom, 0, len(doc.BreakoutIDs)),
		}
		seen := make(map[domain.RoomID]struct{}, len(doc.BreakoutIDs))
		for _, id := range doc.BreakoutIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if bname, live := names[id]; live {
				view.Breakouts = append(view.Breakouts, domain.BreakoutRoom{ID: id, Name: bname})
			}
		}
		out = append(out, view)
	}
	return out
}
