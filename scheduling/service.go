package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service bundles the scheduling components that share one store.
type Service struct {
	Slots    *SlotAllocator
	Bookings *BookingEngine
	Classes  *ClassScheduler
	Agenda   *AgendaAggregator
}

// Option customises a Service.
type Option func(*deps)

// WithLogger sets the logger used for best-effort degradations.
func WithLogger(l *zap.Logger) Option {
	return func(d *deps) { d.log = l }
}

// WithPublisher sets the destination of booking lifecycle events.
func WithPublisher(p EventPublisher) Option {
	return func(d *deps) { d.events = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithAgendaMaxLimit caps the page size of agenda reads.
func WithAgendaMaxLimit(n int) Option {
	return func(d *deps) {
		if n > 0 {
			d.agendaMaxLimit = n
		}
	}
}

type deps struct {
	store          Store
	profiles       ProfileLookup
	events         EventPublisher
	log            *zap.Logger
	locks          *keyedMutex
	now            func() time.Time
	newID          func() string
	agendaMaxLimit int
}

// New wires the scheduling components.
func New(store Store, profiles ProfileLookup, opts ...Option) *Service {
	d := &deps{
		store:          store,
		profiles:       profiles,
		log:            zap.NewNop(),
		locks:          newKeyedMutex(),
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
		agendaMaxLimit: 100,
	}
	for _, opt := range opts {
		opt(d)
	}

	slots := &SlotAllocator{deps: d}
	bookings := &BookingEngine{deps: d, slots: slots}
	slots.bookings = bookings

	return &Service{
		Slots:    slots,
		Bookings: bookings,
		Classes:  &ClassScheduler{deps: d},
		Agenda:   &AgendaAggregator{deps: d},
	}
}

// trainerFor loads the trainer and checks the actor may read it, or write to
// it when write is set.
func (d *deps) trainerFor(ctx context.Context, actor Actor, trainerID string, write bool) (*Trainer, error) {
	trainerID = strings.TrimSpace(trainerID)
	if trainerID == "" {
		return nil, validationErr("trainer id is required")
	}
	tr, err := d.store.Trainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if actor.TenantID == "" || actor.TenantID != tr.TenantID {
		return nil, forbiddenErr("trainer belongs to another tenant")
	}
	if !write {
		return tr, nil
	}
	switch actor.Role {
	case RoleOwner, RoleAdmin:
		return tr, nil
	case RoleTrainer:
		if tr.UserID != "" && tr.UserID == actor.UserID {
			return tr, nil
		}
		return nil, forbiddenErr("trainers can only manage their own agenda")
	}
	return nil, forbiddenErr("role %q cannot manage agendas", actor.Role)
}

func (d *deps) members(ctx context.Context, tenantID string, ids []string) map[string]Member {
	if len(ids) == 0 {
		return nil
	}
	found, err := d.profiles.MembersByIDs(ctx, tenantID, ids)
	if err != nil {
		d.log.Warn("member lookup failed, continuing without profiles",
			zap.String("tenant_id", tenantID), zap.Int("members", len(ids)), zap.Error(err))
		return nil
	}
	return found
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
