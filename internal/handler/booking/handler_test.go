package booking_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/scheduler-api/internal/config"
	bookingHandler "github.com/jwalitptl/scheduler-api/internal/handler/booking"
	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/model"
	authService "github.com/jwalitptl/scheduler-api/internal/service/auth"
	bookingService "github.com/jwalitptl/scheduler-api/internal/service/booking"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/security"
)

type fakeUserRepo struct {
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = uuid.New()
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return u, nil
}

type fakeSlotRepo struct {
	slots map[uuid.UUID]*model.SlotTemplate
}

func (f *fakeSlotRepo) Create(ctx context.Context, s *model.SlotTemplate) error {
	f.slots[s.ID] = s
	return nil
}

func (f *fakeSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.SlotTemplate, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, apperrors.NewNotFound("slot template", nil)
	}
	return s, nil
}

func (f *fakeSlotRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from model.SlotStatus, s *model.SlotTemplate) error {
	f.slots[id] = s
	return nil
}

func (f *fakeSlotRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.SlotTemplate, error) {
	return nil, nil
}

func (f *fakeSlotRepo) List(ctx context.Context, filters *model.SlotFilters) ([]*model.SlotTemplate, error) {
	return nil, nil
}

type fakeLeaveRepo struct{}

func (fakeLeaveRepo) ListApprovedLeave(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.LeaveApproval, error) {
	return nil, nil
}

type ledgerKey struct {
	slotTemplateID uuid.UUID
	date           time.Time
}

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
	return b, nil
}

func (f *fakeBookingRepo) IsBooked(ctx context.Context, slotTemplateID uuid.UUID, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, taken := f.confirmed[ledgerKey{slotTemplateID, date}]
	return taken, nil
}

func (f *fakeBookingRepo) BookedDates(ctx context.Context, slotTemplateID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	return nil, nil
}

func (f *fakeBookingRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return apperrors.NewNotFound("booking", nil)
	}
	b.Status = model.BookingStatusCancelled
	delete(f.confirmed, ledgerKey{b.SlotTemplateID, b.Date})
	return nil
}

func (f *fakeBookingRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Booking, error) {
	return nil, nil
}

type fakeEmitter struct{}

func (fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return nil
}

type testEnv struct {
	engine  *gin.Engine
	authSvc *authService.Service
	slots   *fakeSlotRepo
	users   *fakeUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.RegisterValidators()

	users := newFakeUserRepo()
	slots := &fakeSlotRepo{slots: make(map[uuid.UUID]*model.SlotTemplate)}
	bookings := newFakeBookingRepo()

	authSvc := authService.NewService(users, security.NewBcryptHasher(bcrypt.MinCost, 0), config.JWTConfig{
		Secret:      "test-secret",
		ExpiryHours: 1,
	})
	quiet := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	bookingSvc := bookingService.NewService(bookings, slots, fakeLeaveRepo{}, fakeEmitter{}, quiet)

	engine := gin.New()
	api := engine.Group("/api/v1")
	bookingHandler.NewHandler(bookingSvc, middleware.NewAuthMiddleware(authSvc)).RegisterRoutes(api)

	return &testEnv{engine: engine, authSvc: authSvc, slots: slots, users: users}
}

func (e *testEnv) token(t *testing.T, role model.Role) (uuid.UUID, string) {
	t.Helper()
	email := fmt.Sprintf("%s-%s@hospital.example", role, uuid.NewString()[:8])
	user, err := e.authSvc.Register(context.Background(), &model.RegisterRequest{
		Email:    email,
		Password: "str0ngpass",
		Name:     "Test " + string(role),
		Role:     role,
	})
	require.NoError(t, err)

	resp, err := e.authSvc.Login(context.Background(), email, "str0ngpass")
	require.NoError(t, err)
	return user.ID, resp.Token
}

func (e *testEnv) addAssignedSlot(weekday time.Weekday) *model.SlotTemplate {
	tpl := &model.SlotTemplate{
		ID:        uuid.New(),
		DoctorID:  uuid.New(),
		DayOfWeek: int(weekday),
		TimeSlot:  model.TimeSlotMorning,
		Status:    model.SlotStatusAssigned,
	}
	e.slots.slots[tpl.ID] = tpl
	return tpl
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func nextWednesday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 1)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Wednesday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.addAssignedSlot(time.Wednesday)
	_, token := env.token(t, model.RolePatient)

	w := env.do(http.MethodPost, "/api/v1/bookings", token, gin.H{
		"slot_template_id": tpl.ID,
		"date":             nextWednesday().Format("2006-01-02"),
		"reason":           "persistent cough",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Status string        `json:"status"`
		Data   model.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, tpl.ID, resp.Data.SlotTemplateID)
	assert.Equal(t, model.BookingStatusConfirmed, resp.Data.Status)
	assert.Equal(t, model.UrgencyRoutine, resp.Data.Urgency)
}

func TestCreateBookingConflictIs409(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.addAssignedSlot(time.Wednesday)
	_, first := env.token(t, model.RolePatient)
	_, second := env.token(t, model.RolePatient)

	body := gin.H{
		"slot_template_id": tpl.ID,
		"date":             nextWednesday().Format("2006-01-02"),
		"reason":           "follow-up",
	}
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/bookings", first, body).Code)

	w := env.do(http.MethodPost, "/api/v1/bookings", second, body)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestCreateBookingRejectsTimestampDates(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.addAssignedSlot(time.Wednesday)
	_, token := env.token(t, model.RolePatient)

	w := env.do(http.MethodPost, "/api/v1/bookings", token, gin.H{
		"slot_template_id": tpl.ID,
		"date":             nextWednesday().Format(time.RFC3339),
		"reason":           "persistent cough",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
}

func TestCreateBookingMissingReasonIs400(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.addAssignedSlot(time.Wednesday)
	_, token := env.token(t, model.RolePatient)

	w := env.do(http.MethodPost, "/api/v1/bookings", token, gin.H{
		"slot_template_id": tpl.ID,
		"date":             nextWednesday().Format("2006-01-02"),
		"reason":           "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestCreateBookingRequiresPatientRole(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.addAssignedSlot(time.Wednesday)
	_, token := env.token(t, model.RoleDoctor)

	w := env.do(http.MethodPost, "/api/v1/bookings", token, gin.H{
		"slot_template_id": tpl.ID,
		"date":             nextWednesday().Format("2006-01-02"),
		"reason":           "checkup",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateBookingRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/bookings", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/bookings", "not-a-jwt", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelBookingOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.addAssignedSlot(time.Wednesday)
	_, owner := env.token(t, model.RolePatient)
	_, stranger := env.token(t, model.RolePatient)

	w := env.do(http.MethodPost, "/api/v1/bookings", owner, gin.H{
		"slot_template_id": tpl.ID,
		"date":             nextWednesday().Format("2006-01-02"),
		"reason":           "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data model.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	cancelPath := fmt.Sprintf("/api/v1/bookings/%s/cancel", resp.Data.ID)

	assert.Equal(t, http.StatusForbidden,
		env.do(http.MethodPost, cancelPath, stranger, gin.H{"reason": "nope"}).Code)
	assert.Equal(t, http.StatusOK,
		env.do(http.MethodPost, cancelPath, owner, gin.H{"reason": "cannot make it"}).Code)
}
