package db

import (
	"github.com/padraicbc/trainagenda/models"
	"github.com/padraicbc/trainagenda/scheduling"
)

// Row <-> domain conversions. Rows never leave this package.

func toTrainer(m models.Trainer) scheduling.Trainer {
	t := scheduling.Trainer{ID: m.ID, TenantID: m.TenantID, Name: m.Name}
	if m.UserID != nil {
		t.UserID = *m.UserID
	}
	return t
}

func toMember(m models.Member) scheduling.Member {
	out := scheduling.Member{ID: m.ID, TenantID: m.TenantID, Name: m.Name}
	if m.Email != nil {
		out.Email = *m.Email
	}
	return out
}

func toSlot(m models.EvaluationSlot) scheduling.Slot {
	return scheduling.Slot{
		ID:        m.ID,
		TrainerID: m.TrainerID,
		TenantID:  m.TenantID,
		Start:     m.StartAt.UTC(),
		End:       m.EndAt.UTC(),
		Location:  m.Location,
	}
}

func fromSlot(s scheduling.Slot) models.EvaluationSlot {
	return models.EvaluationSlot{
		ID:        s.ID,
		TrainerID: s.TrainerID,
		TenantID:  s.TenantID,
		StartAt:   s.Start,
		EndAt:     s.End,
		Location:  s.Location,
	}
}

func toBooking(m models.EvaluationBooking) scheduling.Booking {
	b := scheduling.Booking{
		ID:             m.ID,
		SlotID:         m.SlotID,
		MemberID:       m.MemberID,
		TenantID:       m.TenantID,
		Status:         scheduling.BookingStatus(m.Status),
		Notes:          m.Notes,
		Objectives:     nonNil(m.Objectives),
		Restrictions:   nonNil(m.Restrictions),
		MedicalHistory: m.MedicalHistory,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
	if m.CheckInAt != nil {
		t := m.CheckInAt.UTC()
		b.CheckInAt = &t
	}
	return b
}

func fromBooking(b scheduling.Booking) models.EvaluationBooking {
	return models.EvaluationBooking{
		ID:             b.ID,
		SlotID:         b.SlotID,
		MemberID:       b.MemberID,
		TenantID:       b.TenantID,
		Status:         string(b.Status),
		CheckInAt:      b.CheckInAt,
		Notes:          b.Notes,
		Objectives:     nonNil(b.Objectives),
		Restrictions:   nonNil(b.Restrictions),
		MedicalHistory: b.MedicalHistory,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func toMeasurement(m models.Measurement) scheduling.Measurement {
	return scheduling.Measurement{Type: m.Type, Value: m.Value, Unit: m.Unit}
}

func fromMeasurement(bookingID string, m scheduling.Measurement) models.Measurement {
	return models.Measurement{BookingID: bookingID, Type: m.Type, Value: m.Value, Unit: m.Unit}
}

func toClass(m models.Class) scheduling.Class {
	return scheduling.Class{
		ID:        m.ID,
		TrainerID: m.TrainerID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Type:      m.Type,
		Start:     m.StartAt.UTC(),
		End:       m.EndAt.UTC(),
		Location:  m.Location,
		Capacity:  m.Capacity,
	}
}

func fromClass(c scheduling.Class) models.Class {
	return models.Class{
		ID:        c.ID,
		TrainerID: c.TrainerID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		Type:      c.Type,
		StartAt:   c.Start,
		EndAt:     c.End,
		Location:  c.Location,
		Capacity:  c.Capacity,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
