// Package availability composes the calendar, slot templates, leave ranges
// and the booking ledger into "what can this patient still book".
package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/pkg/calendar"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type Service struct {
	slotRepo    repository.SlotTemplateRepository
	bookingRepo repository.BookingRepository
	leaveRepo   repository.LeaveRepository
}

func NewService(slotRepo repository.SlotTemplateRepository, bookingRepo repository.BookingRepository, leaveRepo repository.LeaveRepository) *Service {
	return &Service{
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		leaveRepo:   leaveRepo,
	}
}

// Resolve returns, per assigned template of the doctor, the concrete dates in
// [windowStart, windowEnd) that are neither on approved leave nor already
// booked. Templates with no surviving dates are omitted.
//
// This is a convenience read for rendering options. It is never proof of
// availability: the booking ledger re-checks uniqueness inside its atomic
// insert, and a date shown here can legitimately be gone by submit time.
func (s *Service) Resolve(ctx context.Context, doctorID uuid.UUID, windowStart, windowEnd time.Time) ([]*model.DoctorAvailability, error) {
	windowStart = calendar.Truncate(windowStart)
	windowEnd = calendar.Truncate(windowEnd)
	if !windowStart.Before(windowEnd) {
		return nil, apperrors.NewBadRequest("window start must be before window end", nil)
	}

	templates, err := s.slotRepo.List(ctx, &model.SlotFilters{
		DoctorID: doctorID,
		Status:   model.SlotStatusAssigned,
	})
	if err != nil {
		return nil, err
	}

	leaves, err := s.leaveRepo.ListApprovedLeave(ctx, doctorID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	var out []*model.DoctorAvailability
	for _, tpl := range templates {
		dates := calendar.Occurrences(tpl.Weekday(), windowStart, windowEnd)
		if len(dates) == 0 {
			continue
		}

		booked, err := s.bookingRepo.BookedDates(ctx, tpl.ID, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		bookedSet := make(map[time.Time]struct{}, len(booked))
		for _, d := range booked {
			bookedSet[calendar.Truncate(d)] = struct{}{}
		}

		open := dates[:0]
		for _, d := range dates {
			if onLeave(leaves, d) {
				continue
			}
			if _, taken := bookedSet[d]; taken {
				continue
			}
			open = append(open, d)
		}

		if len(open) > 0 {
			out = append(out, &model.DoctorAvailability{Template: tpl, Dates: open})
		}
	}
	return out, nil
}

func onLeave(leaves []*model.LeaveApproval, date time.Time) bool {
	for _, l := range leaves {
		if l.Covers(date) {
			return true
		}
	}
	return false
}
