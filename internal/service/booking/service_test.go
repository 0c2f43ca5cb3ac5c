package booking_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/service/booking"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:  logger.ErrorLevel,
		Output: io.Discard,
	})
}

type fakeSlotRepo struct {
	slots map[uuid.UUID]*model.SlotTemplate
}

func (f *fakeSlotRepo) Create(ctx context.Context, slot *model.SlotTemplate) error {
	f.slots[slot.ID] = slot
	return nil
}

func (f *fakeSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.SlotTemplate, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, apperrors.NewNotFound("slot template", nil)
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from model.SlotStatus, slot *model.SlotTemplate) error {
	current, ok := f.slots[id]
	if !ok || current.Status != from {
		return apperrors.InvalidTransition("slot template is not " + string(from))
	}
	f.slots[id] = slot
	return nil
}

func (f *fakeSlotRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.SlotTemplate, error) {
	var out []*model.SlotTemplate
	for _, s := range f.slots {
		if s.DoctorID == doctorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) List(ctx context.Context, filters *model.SlotFilters) ([]*model.SlotTemplate, error) {
	var out []*model.SlotTemplate
	for _, s := range f.slots {
		if filters != nil {
			if filters.DoctorID != uuid.Nil && s.DoctorID != filters.DoctorID {
				continue
			}
			if filters.Status != "" && s.Status != filters.Status {
				continue
			}
			if filters.DayOfWeek != nil && s.DayOfWeek != *filters.DayOfWeek {
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeLeaveRepo struct {
	leaves []*model.LeaveApproval
}

func (f *fakeLeaveRepo) ListApprovedLeave(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.LeaveApproval, error) {
	var out []*model.LeaveApproval
	for _, l := range f.leaves {
		if l.DoctorID == doctorID && l.StartDate.Before(end) && !l.EndDate.Before(start) {
			out = append(out, l)
		}
	}
	return out, nil
}

type ledgerKey struct {
	slotTemplateID uuid.UUID
	date           time.Time
}

// fakeBookingRepo mirrors the ledger's uniqueness contract: Create holds the
// lock while it checks and inserts, so concurrent callers for the same
// (template, date) see exactly one winner.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*model.Booking
	confirmed map[ledgerKey]uuid.UUID
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:  make(map[uuid.UUID]*model.Booking),
		confirmed: make(map[ledgerKey]uuid.UUID),
	}
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := ledgerKey{b.SlotTemplateID, b.Date}
	if _, taken := f.confirmed[key]; taken {
		return apperrors.SlotAlreadyBooked(nil)
	}

	b.ID = uuid.New()
	b.Status = model.BookingStatusConfirmed
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()
	f.bookings[b.ID] = b
	f.confirmed[key] = b.ID
	return nil
}

func (f *fakeBookingRepo) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.NewNotFound("booking", nil)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) IsBooked(ctx context.Context, slotTemplateID uuid.UUID, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, taken := f.confirmed[ledgerKey{slotTemplateID, date}]
	return taken, nil
}

func (f *fakeBookingRepo) BookedDates(ctx context.Context, slotTemplateID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Time
	for key := range f.confirmed {
		if key.slotTemplateID == slotTemplateID && !key.date.Before(start) && key.date.Before(end) {
			out = append(out, key.date)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return apperrors.NewNotFound("booking", nil)
	}
	b.Status = model.BookingStatusCancelled
	b.CancelReason = &reason
	delete(f.confirmed, ledgerKey{b.SlotTemplateID, b.Date})
	return nil
}

func (f *fakeBookingRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.PatientID == patientID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeEmitter) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == eventType {
			n++
		}
	}
	return n
}

// nextDate returns the next occurrence of weekday strictly in the future, at
// UTC midnight.
func nextDate(weekday time.Weekday) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 1)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func assignedTemplate(doctorID uuid.UUID, weekday time.Weekday) *model.SlotTemplate {
	return &model.SlotTemplate{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		DayOfWeek: int(weekday),
		TimeSlot:  model.TimeSlotMorning,
		Status:    model.SlotStatusAssigned,
	}
}

func newBookingService(slots *fakeSlotRepo, bookings *fakeBookingRepo, leaves *fakeLeaveRepo, emitter *fakeEmitter) *booking.Service {
	return booking.NewService(bookings, slots, leaves, emitter, testLogger())
}

func TestBook(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	bookings := newFakeBookingRepo()
	emitter := &fakeEmitter{}
	svc := newBookingService(slots, bookings, &fakeLeaveRepo{}, emitter)

	date := nextDate(time.Wednesday)
	b, err := svc.Book(context.Background(), tpl.ID, date, patientID, "checkup", "")
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	assert.Equal(t, model.UrgencyRoutine, b.Urgency, "empty urgency defaults to routine")
	assert.Equal(t, date, b.Date)
	assert.Equal(t, patientID, b.PatientID)
	assert.Equal(t, 1, emitter.count(model.EventBookingCommitted))
}

func TestBookTruncatesDate(t *testing.T) {
	doctorID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	svc := newBookingService(slots, newFakeBookingRepo(), &fakeLeaveRepo{}, &fakeEmitter{})

	date := nextDate(time.Wednesday)
	withTime := date.Add(14*time.Hour + 30*time.Minute)

	b, err := svc.Book(context.Background(), tpl.ID, withTime, uuid.New(), "checkup", model.UrgencyUrgent)
	require.NoError(t, err)
	assert.Equal(t, date, b.Date, "time-of-day must not create a distinct bookable occurrence")
}

func TestBookUnknownSlot(t *testing.T) {
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{}}
	svc := newBookingService(slots, newFakeBookingRepo(), &fakeLeaveRepo{}, &fakeEmitter{})

	_, err := svc.Book(context.Background(), uuid.New(), nextDate(time.Monday), uuid.New(), "checkup", "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrSlotNotBookable),
		"an unknown template must read as not bookable, not as a lookup failure")
}

func TestBookSlotNotBookable(t *testing.T) {
	doctorID := uuid.New()
	for _, status := range []model.SlotStatus{model.SlotStatusPending, model.SlotStatusRejected} {
		tpl := assignedTemplate(doctorID, time.Wednesday)
		tpl.Status = status
		slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
		svc := newBookingService(slots, newFakeBookingRepo(), &fakeLeaveRepo{}, &fakeEmitter{})

		// Date is wrong too; the status check fires first.
		_, err := svc.Book(context.Background(), tpl.ID, nextDate(time.Friday), uuid.New(), "", "")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrSlotNotBookable), "status %s", status)
	}
}

func TestBookDateMismatch(t *testing.T) {
	doctorID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	svc := newBookingService(slots, newFakeBookingRepo(), &fakeLeaveRepo{}, &fakeEmitter{})

	// Reason is empty too; the weekday check fires first.
	_, err := svc.Book(context.Background(), tpl.ID, nextDate(time.Thursday), uuid.New(), "", "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrDateMismatch))
}

func TestBookDoctorOnLeave(t *testing.T) {
	doctorID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	date := nextDate(time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	leaves := &fakeLeaveRepo{leaves: []*model.LeaveApproval{{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		StartDate: date.AddDate(0, 0, -2),
		EndDate:   date, // inclusive
	}}}
	svc := newBookingService(slots, newFakeBookingRepo(), leaves, &fakeEmitter{})

	// Reason is empty too; the leave check fires first.
	_, err := svc.Book(context.Background(), tpl.ID, date, uuid.New(), "", "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrDoctorOnLeave))

	// The day after the leave ends is bookable again.
	after := date.AddDate(0, 0, 7)
	_, err = svc.Book(context.Background(), tpl.ID, after, uuid.New(), "checkup", "")
	assert.NoError(t, err)
}

func TestBookMissingReason(t *testing.T) {
	doctorID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	bookings := newFakeBookingRepo()
	svc := newBookingService(slots, bookings, &fakeLeaveRepo{}, &fakeEmitter{})

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := svc.Book(context.Background(), tpl.ID, nextDate(time.Wednesday), uuid.New(), reason, "")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrMissingReason), "reason %q", reason)
	}
	assert.Empty(t, bookings.bookings, "rejected requests must not reach the ledger")
}

func TestBookDuplicateDate(t *testing.T) {
	doctorID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	date := nextDate(time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	svc := newBookingService(slots, newFakeBookingRepo(), &fakeLeaveRepo{}, &fakeEmitter{})

	_, err := svc.Book(context.Background(), tpl.ID, date, uuid.New(), "checkup", "")
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), tpl.ID, date, uuid.New(), "second opinion", "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrSlotAlreadyBooked))

	// Same template, next week: independent occurrence.
	_, err = svc.Book(context.Background(), tpl.ID, date.AddDate(0, 0, 7), uuid.New(), "checkup", "")
	assert.NoError(t, err)
}

func TestBookConcurrentOneWinner(t *testing.T) {
	doctorID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	date := nextDate(time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	bookings := newFakeBookingRepo()
	emitter := &fakeEmitter{}
	svc := newBookingService(slots, bookings, &fakeLeaveRepo{}, emitter)

	const patients = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed []*model.Booking
		conflicts int
	)
	for i := 0; i < patients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := svc.Book(context.Background(), tpl.ID, date, uuid.New(), "checkup", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed = append(committed, b)
			case apperrors.IsCode(err, apperrors.ErrSlotAlreadyBooked):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, committed, 1, "exactly one patient wins the date")
	assert.Equal(t, patients-1, conflicts)
	assert.Len(t, bookings.bookings, 1)
	assert.Equal(t, 1, emitter.count(model.EventBookingCommitted))
}

func TestCancel(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()
	tpl := assignedTemplate(doctorID, time.Wednesday)
	date := nextDate(time.Wednesday)
	slots := &fakeSlotRepo{slots: map[uuid.UUID]*model.SlotTemplate{tpl.ID: tpl}}
	bookings := newFakeBookingRepo()
	svc := newBookingService(slots, bookings, &fakeLeaveRepo{}, &fakeEmitter{})

	b, err := svc.Book(context.Background(), tpl.ID, date, patientID, "checkup", "")
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), b.ID, uuid.New(), "cannot make it")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden), "only the booking patient can cancel")

	require.NoError(t, svc.Cancel(context.Background(), b.ID, patientID, "cannot make it"))

	cancelled, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

	// Cancellation frees the date for another patient.
	_, err = svc.Book(context.Background(), tpl.ID, date, uuid.New(), "checkup", "")
	assert.NoError(t, err)
}
