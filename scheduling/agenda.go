package scheduling

import (
	"cmp"
	"context"
	"slices"
)

const defaultAgendaLimit = 50

// AgendaQuery pages the merged agenda. Page is 1-based.
type AgendaQuery struct {
	Page  int
	Limit int
}

// AgendaAggregator merges a trainer's classes and booked evaluations into one
// calendar.
type AgendaAggregator struct {
	*deps
}

// Get returns one page of the trainer's agenda ordered by start time, plus the
// total number of events across all pages. Both sources are loaded in full and
// paginated after the merge.
func (g *AgendaAggregator) Get(ctx context.Context, actor Actor, trainerID string, q AgendaQuery) ([]AgendaEvent, int, error) {
	tr, err := g.trainerFor(ctx, actor, trainerID, false)
	if err != nil {
		return nil, 0, err
	}

	classEvents, err := g.classEvents(ctx, tr)
	if err != nil {
		return nil, 0, err
	}
	evalEvents, err := g.evaluationEvents(ctx, tr)
	if err != nil {
		return nil, 0, err
	}

	events := append(classEvents, evalEvents...)
	slices.SortFunc(events, func(x, y AgendaEvent) int {
		if c := x.Start.Compare(y.Start); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})

	total := len(events)
	q = g.Normalize(q)
	from := min(pageOffset(q.Page, q.Limit), total)
	to := min(from+q.Limit, total)
	return events[from:to], total, nil
}

// Normalize applies the default page and the limit bounds Get uses.
func (g *AgendaAggregator) Normalize(q AgendaQuery) AgendaQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultAgendaLimit
	}
	q.Limit = min(q.Limit, g.agendaMaxLimit)
	return q
}

func (g *AgendaAggregator) classEvents(ctx context.Context, tr *Trainer) ([]AgendaEvent, error) {
	classes, err := g.store.ClassesByTrainer(ctx, tr.TenantID, tr.ID)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return []AgendaEvent{}, nil
	}

	ids := make([]string, len(classes))
	for i, c := range classes {
		ids[i] = c.ID
	}
	counts, err := g.store.ClassBookingCounts(ctx, tr.TenantID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]AgendaEvent, 0, len(classes))
	for _, c := range classes {
		capacity := c.Capacity
		seats := SeatsAvailable(c.Capacity, counts[c.ID].Live)
		out = append(out, AgendaEvent{
			ID:             c.ID,
			Title:          c.Name,
			TrainerID:      c.TrainerID,
			Start:          c.Start,
			End:            c.End,
			Location:       c.Location,
			Kind:           KindClass,
			Capacity:       &capacity,
			SeatsAvailable: &seats,
		})
	}
	return out, nil
}

func (g *AgendaAggregator) evaluationEvents(ctx context.Context, tr *Trainer) ([]AgendaEvent, error) {
	slots, err := g.store.SlotsByTrainer(ctx, tr.TenantID, tr.ID)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return []AgendaEvent{}, nil
	}

	byID := make(map[string]Slot, len(slots))
	ids := make([]string, len(slots))
	for i, s := range slots {
		byID[s.ID] = s
		ids[i] = s.ID
	}
	bookings, err := g.store.BookingsBySlots(ctx, tr.TenantID, ids, StatusBooked)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]string, len(bookings))
	for i, b := range bookings {
		memberIDs[i] = b.MemberID
	}
	members := g.members(ctx, tr.TenantID, uniqueIDs(memberIDs))

	out := make([]AgendaEvent, 0, len(bookings))
	for _, b := range bookings {
		s, ok := byID[b.SlotID]
		if !ok {
			continue
		}
		title := "Physical evaluation"
		if m, ok := members[b.MemberID]; ok && m.Name != "" {
			title = "Physical evaluation: " + m.Name
		}
		out = append(out, AgendaEvent{
			ID:        s.ID,
			Title:     title,
			TrainerID: s.TrainerID,
			Start:     s.Start,
			End:       s.End,
			Location:  s.Location,
			Kind:      KindEvaluation,
			MemberID:  b.MemberID,
			BookingID: b.ID,
		})
	}
	return out, nil
}
