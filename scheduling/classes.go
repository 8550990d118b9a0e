package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/padraicbc/trainagenda/metrics"
)

// ClassInput describes a group class. Capacity is a pointer so a missing
// value can be told apart from zero.
type ClassInput struct {
	Name     string
	Type     string
	Start    time.Time
	End      time.Time
	Location string
	Capacity *int
}

func (in ClassInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return validationErr("name is required")
	case strings.TrimSpace(in.Type) == "":
		return validationErr("type is required")
	case strings.TrimSpace(in.Location) == "":
		return validationErr("location is required")
	case in.Capacity == nil:
		return validationErr("capacity is required")
	case *in.Capacity < 0:
		return validationErr("capacity must not be negative")
	}
	return validateWindow(in.Start, in.End)
}

// ClassView is a class with its seat accounting.
type ClassView struct {
	Class          Class
	LiveBookings   int
	SeatsAvailable int
}

// SeatsAvailable is capacity minus live bookings, never below zero.
func SeatsAvailable(capacity, live int) int {
	return max(capacity-live, 0)
}

// ClassScheduler manages a trainer's group classes. Classes may overlap each
// other freely.
type ClassScheduler struct {
	*deps
}

func (s *ClassScheduler) Create(ctx context.Context, actor Actor, trainerID string, in ClassInput) (*ClassView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tr, err := s.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return nil, err
	}
	class := Class{ID: s.newID(), TrainerID: tr.ID, TenantID: tr.TenantID}
	apply(&class, in)
	if err := s.store.CreateClass(ctx, class); err != nil {
		return nil, err
	}
	return &ClassView{Class: class, SeatsAvailable: class.Capacity}, nil
}

func (s *ClassScheduler) Update(ctx context.Context, actor Actor, trainerID, classID string, in ClassInput) (*ClassView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tr, err := s.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return nil, err
	}
	class, err := s.owned(ctx, tr, classID)
	if err != nil {
		return nil, err
	}
	apply(class, in)
	if err := s.store.UpdateClass(ctx, *class); err != nil {
		return nil, err
	}
	return s.view(ctx, class)
}

func (s *ClassScheduler) Get(ctx context.Context, actor Actor, trainerID, classID string) (*ClassView, error) {
	tr, err := s.trainerFor(ctx, actor, trainerID, false)
	if err != nil {
		return nil, err
	}
	class, err := s.owned(ctx, tr, classID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, class)
}

// Delete removes a class that no booking references.
func (s *ClassScheduler) Delete(ctx context.Context, actor Actor, trainerID, classID string) error {
	tr, err := s.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return err
	}
	class, err := s.owned(ctx, tr, classID)
	if err != nil {
		return err
	}
	counts, err := s.store.ClassBookingCounts(ctx, tr.TenantID, []string{class.ID})
	if err != nil {
		return err
	}
	if counts[class.ID].Total > 0 {
		metrics.RecordConflict(metrics.ReasonClassInUse)
		return conflictErr("cannot delete a class with existing bookings")
	}
	return s.store.DeleteClass(ctx, tr.TenantID, class.ID)
}

func (s *ClassScheduler) owned(ctx context.Context, tr *Trainer, classID string) (*Class, error) {
	if strings.TrimSpace(classID) == "" {
		return nil, validationErr("class id is required")
	}
	class, err := s.store.Class(ctx, tr.TenantID, classID)
	if err != nil {
		return nil, err
	}
	if class.TrainerID != tr.ID {
		return nil, forbiddenErr("class does not belong to this trainer")
	}
	return class, nil
}

func (s *ClassScheduler) view(ctx context.Context, class *Class) (*ClassView, error) {
	counts, err := s.store.ClassBookingCounts(ctx, class.TenantID, []string{class.ID})
	if err != nil {
		return nil, err
	}
	live := counts[class.ID].Live
	return &ClassView{Class: *class, LiveBookings: live, SeatsAvailable: SeatsAvailable(class.Capacity, live)}, nil
}

func apply(class *Class, in ClassInput) {
	class.Name = strings.TrimSpace(in.Name)
	class.Type = strings.TrimSpace(in.Type)
	class.Start = in.Start.UTC()
	class.End = in.End.UTC()
	class.Location = strings.TrimSpace(in.Location)
	class.Capacity = *in.Capacity
}
