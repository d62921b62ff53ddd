package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/scheduling-api/internal/model"
	apperrors "github.com/clinichub/scheduling-api/pkg/errors"
)

type fakeSlotRepo struct {
	slots map[uuid.UUID]*model.Slot
	// claimDenied simulates losing the conditional update to a concurrent
	// booker after the availability pre-check passed.
	claimDenied bool
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[uuid.UUID]*model.Slot)}
}

func (r *fakeSlotRepo) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func (r *fakeSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	if s, ok := r.slots[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, errors.New("slot not found")
}

func (r *fakeSlotRepo) ListForDate(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	return nil, nil
}

func (r *fakeSlotRepo) ListForDateTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	return nil, nil
}

func (r *fakeSlotRepo) InsertTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	r.slots[slot.ID] = slot
	return nil
}

func (r *fakeSlotRepo) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.SlotStatus) error {
	r.slots[id].Status = status
	return nil
}

func (r *fakeSlotRepo) ResizeTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error {
	r.slots[slot.ID] = slot
	return nil
}

func (r *fakeSlotRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	delete(r.slots, id)
	return nil
}

func (r *fakeSlotRepo) ClaimTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	if r.claimDenied {
		return false, nil
	}
	s, ok := r.slots[id]
	if !ok || s.Status != model.SlotStatusAvailable {
		return false, nil
	}
	s.Status = model.SlotStatusBooked
	return true, nil
}

func (r *fakeSlotRepo) ReleaseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	r.slots[id].Status = model.SlotStatusAvailable
	return nil
}

func (r *fakeSlotRepo) ListFutureBooked(ctx context.Context, doctorID, clinicID uuid.UUID, from time.Time) ([]*model.Slot, error) {
	return nil, nil
}

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	lockCalls    int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func (r *fakeAppointmentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	r.appointments[apt.ID] = apt
	return nil
}

func (r *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	if a, ok := r.appointments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, errors.New("appointment not found")
}

func (r *fakeAppointmentRepo) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error {
	apt := r.appointments[id]
	apt.Status = status
	apt.CancelReason = cancelReason
	return nil
}

func (r *fakeAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) LockQueueTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) error {
	r.lockCalls++
	return nil
}

func (r *fakeAppointmentRepo) MaxQueuePositionTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) (int, error) {
	max := 0
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.ClinicID == clinicID && a.Date.Equal(date) && a.QueuePosition != nil && *a.QueuePosition > max {
			max = *a.QueuePosition
		}
	}
	return max, nil
}

func (r *fakeAppointmentRepo) CountQueuedTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) (int, error) {
	n := 0
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.ClinicID == clinicID && a.Date.Equal(date) && a.QueuePosition != nil && a.Status != model.AppointmentStatusCancelled {
			n++
		}
	}
	return n, nil
}

type fakeSettingsRepo struct {
	settings map[string]*model.WorkSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[string]*model.WorkSettings)}
}

func settingsKey(clinicID, doctorID uuid.UUID) string {
	return clinicID.String() + doctorID.String()
}

func (r *fakeSettingsRepo) Upsert(ctx context.Context, s *model.WorkSettings) error {
	r.settings[settingsKey(s.ClinicID, s.DoctorID)] = s
	return nil
}

func (r *fakeSettingsRepo) Get(ctx context.Context, clinicID, doctorID uuid.UUID) (*model.WorkSettings, error) {
	return r.settings[settingsKey(clinicID, doctorID)], nil
}

func futureDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7)
}

func pastDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7)
}

func newBookingService(t *testing.T) (*Service, *fakeSlotRepo, *fakeAppointmentRepo, *fakeSettingsRepo) {
	t.Helper()
	slotRepo := newFakeSlotRepo()
	aptRepo := newFakeAppointmentRepo()
	settingsRepo := newFakeSettingsRepo()
	return NewService(slotRepo, aptRepo, settingsRepo, nil, nil, nil), slotRepo, aptRepo, settingsRepo
}

func availableSlot(slotRepo *fakeSlotRepo, date time.Time) *model.Slot {
	slot := &model.Slot{
		DoctorID:  uuid.New(),
		ClinicID:  uuid.New(),
		Date:      date,
		StartTime: "09:00",
		EndTime:   "09:30",
		Status:    model.SlotStatusAvailable,
		Origin:    model.SlotOriginTemplate,
	}
	_ = slotRepo.InsertTx(context.Background(), nil, slot)
	return slot
}

func TestBookSlot(t *testing.T) {
	svc, slotRepo, aptRepo, _ := newBookingService(t)
	slot := availableSlot(slotRepo, futureDate())
	patientID := uuid.New()

	apt, err := svc.Book(context.Background(), &model.BookSlotRequest{
		SlotID:    slot.ID,
		PatientID: patientID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, apt.PaymentStatus)
	assert.Equal(t, model.AppointmentSourceApp, apt.Source)
	require.NotNil(t, apt.SlotID)
	assert.Equal(t, slot.ID, *apt.SlotID)
	assert.Equal(t, patientID, apt.PatientID)

	assert.Equal(t, model.SlotStatusBooked, slotRepo.slots[slot.ID].Status)
	assert.Len(t, aptRepo.appointments, 1)
}

func TestBookSlotSecondBookerLoses(t *testing.T) {
	svc, slotRepo, aptRepo, _ := newBookingService(t)
	slot := availableSlot(slotRepo, futureDate())

	_, err := svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSlotUnavailable))
	assert.Len(t, aptRepo.appointments, 1)
}

func TestBookSlotRaceLoserGetsSlotUnavailable(t *testing.T) {
	svc, slotRepo, aptRepo, _ := newBookingService(t)
	slot := availableSlot(slotRepo, futureDate())
	slotRepo.claimDenied = true

	_, err := svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrSlotUnavailable))
	assert.Empty(t, aptRepo.appointments)
}

func TestBookSlotInPast(t *testing.T) {
	svc, slotRepo, _, _ := newBookingService(t)
	slot := availableSlot(slotRepo, pastDate())

	_, err := svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestBookSlotRejectedWhenDoctorUsesQueue(t *testing.T) {
	svc, slotRepo, _, settingsRepo := newBookingService(t)
	slot := availableSlot(slotRepo, futureDate())

	n := 10
	require.NoError(t, settingsRepo.Upsert(context.Background(), &model.WorkSettings{
		ClinicID:          slot.ClinicID,
		DoctorID:          slot.DoctorID,
		Method:            model.BookingMethodQueue,
		AppointmentPeriod: 30,
		Queue:             true,
		QueueNumber:       &n,
	}))

	_, err := svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCancelReleasesSlot(t *testing.T) {
	svc, slotRepo, _, _ := newBookingService(t)
	slot := availableSlot(slotRepo, futureDate())

	apt, err := svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), apt.ID, "patient request")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "patient request", *cancelled.CancelReason)

	assert.Equal(t, model.SlotStatusAvailable, slotRepo.slots[slot.ID].Status)

	// The released slot is bookable again.
	_, err = svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	assert.NoError(t, err)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	svc, slotRepo, _, _ := newBookingService(t)
	slot := availableSlot(slotRepo, futureDate())

	apt, err := svc.Book(context.Background(), &model.BookSlotRequest{SlotID: slot.ID, PatientID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), apt.ID, "")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), apt.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCancelPastAppointment(t *testing.T) {
	svc, _, aptRepo, _ := newBookingService(t)

	apt := &model.Appointment{
		DoctorID:  uuid.New(),
		ClinicID:  uuid.New(),
		PatientID: uuid.New(),
		Date:      pastDate(),
		Status:    model.AppointmentStatusScheduled,
	}
	require.NoError(t, aptRepo.CreateTx(context.Background(), nil, apt))

	_, err := svc.Cancel(context.Background(), apt.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutablePastSlot))
}

func TestBookQueueAssignsSequentialPositions(t *testing.T) {
	svc, _, aptRepo, settingsRepo := newBookingService(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	date := futureDate()

	n := 3
	require.NoError(t, settingsRepo.Upsert(context.Background(), &model.WorkSettings{
		ClinicID:          clinicID,
		DoctorID:          doctorID,
		Method:            model.BookingMethodQueue,
		AppointmentPeriod: 30,
		Queue:             true,
		QueueNumber:       &n,
	}))

	req := func() *model.BookQueueRequest {
		return &model.BookQueueRequest{
			DoctorID:  doctorID,
			ClinicID:  clinicID,
			Date:      date.Format(model.DateOnly),
			PatientID: uuid.New(),
		}
	}

	for want := 1; want <= 3; want++ {
		apt, err := svc.BookQueue(context.Background(), req())
		require.NoError(t, err)
		require.NotNil(t, apt.QueuePosition)
		assert.Equal(t, want, *apt.QueuePosition)
		assert.Nil(t, apt.SlotID)
	}

	_, err := svc.BookQueue(context.Background(), req())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrQueueFull))
	assert.Equal(t, 4, aptRepo.lockCalls)
}

func TestBookQueuePositionsNeverReused(t *testing.T) {
	svc, _, _, settingsRepo := newBookingService(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	date := futureDate()

	n := 2
	require.NoError(t, settingsRepo.Upsert(context.Background(), &model.WorkSettings{
		ClinicID:          clinicID,
		DoctorID:          doctorID,
		Method:            model.BookingMethodQueue,
		AppointmentPeriod: 30,
		Queue:             true,
		QueueNumber:       &n,
	}))

	req := &model.BookQueueRequest{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Date:      date.Format(model.DateOnly),
		PatientID: uuid.New(),
	}

	first, err := svc.BookQueue(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.BookQueue(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, *second.QueuePosition)

	// Cancelling position 1 frees capacity but the number is spent.
	_, err = svc.Cancel(context.Background(), first.ID, "")
	require.NoError(t, err)

	third, err := svc.BookQueue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, *third.QueuePosition)
}

func TestBookQueueWithoutSettings(t *testing.T) {
	svc, _, _, _ := newBookingService(t)

	_, err := svc.BookQueue(context.Background(), &model.BookQueueRequest{
		DoctorID:  uuid.New(),
		ClinicID:  uuid.New(),
		Date:      futureDate().Format(model.DateOnly),
		PatientID: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAssociationNotFound))
}

func TestBookQueueDisabled(t *testing.T) {
	svc, _, _, settingsRepo := newBookingService(t)
	doctorID, clinicID := uuid.New(), uuid.New()

	require.NoError(t, settingsRepo.Upsert(context.Background(), &model.WorkSettings{
		ClinicID:          clinicID,
		DoctorID:          doctorID,
		Method:            model.BookingMethodFixedSlot,
		AppointmentPeriod: 30,
		Queue:             false,
	}))

	_, err := svc.BookQueue(context.Background(), &model.BookQueueRequest{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Date:      futureDate().Format(model.DateOnly),
		PatientID: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}
