package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/scheduling-api/internal/model"
	apperrors "github.com/clinichub/scheduling-api/pkg/errors"
)

type fakeScheduleRepo struct {
	templates []*model.WeeklyScheduleTemplate
}

func (r *fakeScheduleRepo) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

func (r *fakeScheduleRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, tmpl *model.WeeklyScheduleTemplate) error {
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	r.templates = append(r.templates, tmpl)
	return nil
}

func (r *fakeScheduleRepo) CloseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, effectiveTo time.Time) error {
	for _, tmpl := range r.templates {
		if tmpl.ID == id {
			to := effectiveTo
			tmpl.EffectiveTo = &to
		}
	}
	return nil
}

func (r *fakeScheduleRepo) Get(ctx context.Context, id uuid.UUID) (*model.WeeklyScheduleTemplate, error) {
	for _, tmpl := range r.templates {
		if tmpl.ID == id {
			return tmpl, nil
		}
	}
	return nil, apperrors.NotFound("schedule template", nil)
}

func (r *fakeScheduleRepo) List(ctx context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklyScheduleTemplate, error) {
	var out []*model.WeeklyScheduleTemplate
	for _, tmpl := range r.templates {
		if tmpl.DoctorID == doctorID && tmpl.ClinicID == clinicID {
			out = append(out, tmpl)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) GetEffective(ctx context.Context, doctorID, clinicID uuid.UUID, dayOfWeek int, date time.Time) (*model.WeeklyScheduleTemplate, error) {
	var best *model.WeeklyScheduleTemplate
	for _, tmpl := range r.templates {
		if tmpl.DoctorID != doctorID || tmpl.ClinicID != clinicID || tmpl.DayOfWeek != dayOfWeek {
			continue
		}
		if !tmpl.EffectiveOn(date) {
			continue
		}
		if best == nil || tmpl.Version > best.Version {
			best = tmpl
		}
	}
	return best, nil
}

func (r *fakeScheduleRepo) ListActiveForDay(ctx context.Context, doctorID, clinicID uuid.UUID, dayOfWeek int) ([]*model.WeeklyScheduleTemplate, error) {
	var out []*model.WeeklyScheduleTemplate
	for _, tmpl := range r.templates {
		if tmpl.DoctorID == doctorID && tmpl.ClinicID == clinicID && tmpl.DayOfWeek == dayOfWeek && tmpl.IsActive {
			out = append(out, tmpl)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) ListActivePairs(ctx context.Context) ([]*model.DoctorClinic, error) {
	return nil, nil
}

func (r *fakeScheduleRepo) NextVersionTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, dayOfWeek int) (int, error) {
	max := 0
	for _, tmpl := range r.templates {
		if tmpl.DoctorID == doctorID && tmpl.ClinicID == clinicID && tmpl.DayOfWeek == dayOfWeek && tmpl.Version > max {
			max = tmpl.Version
		}
	}
	return max + 1, nil
}

type fakeSlotRepo struct {
	booked []*model.Slot
}

func (r *fakeSlotRepo) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error { return fn(nil) }
func (r *fakeSlotRepo) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return nil, apperrors.NotFound("slot", nil)
}
func (r *fakeSlotRepo) ListForDate(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	return nil, nil
}
func (r *fakeSlotRepo) ListForDateTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	return nil, nil
}
func (r *fakeSlotRepo) InsertTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error {
	return nil
}
func (r *fakeSlotRepo) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.SlotStatus) error {
	return nil
}
func (r *fakeSlotRepo) ResizeTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error {
	return nil
}
func (r *fakeSlotRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error { return nil }
func (r *fakeSlotRepo) ClaimTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	return false, nil
}
func (r *fakeSlotRepo) ReleaseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error { return nil }
func (r *fakeSlotRepo) ListFutureBooked(ctx context.Context, doctorID, clinicID uuid.UUID, from time.Time) ([]*model.Slot, error) {
	return r.booked, nil
}

type fakeSettingsRepo struct {
	settings *model.WorkSettings
}

func (r *fakeSettingsRepo) Upsert(ctx context.Context, s *model.WorkSettings) error {
	r.settings = s
	return nil
}

func (r *fakeSettingsRepo) Get(ctx context.Context, clinicID, doctorID uuid.UUID) (*model.WorkSettings, error) {
	return r.settings, nil
}

func newScheduleService(t *testing.T) (*Service, *fakeScheduleRepo, *fakeSlotRepo, *fakeSettingsRepo) {
	t.Helper()
	repo := &fakeScheduleRepo{}
	slotRepo := &fakeSlotRepo{}
	settingsRepo := &fakeSettingsRepo{}
	return NewService(repo, slotRepo, settingsRepo, nil), repo, slotRepo, settingsRepo
}

func doctorActor(doctorID uuid.UUID) model.Actor {
	return model.Actor{Type: model.ActorTypeDoctor, ID: doctorID}
}

func baseRequest(doctorID, clinicID uuid.UUID) *model.SetWeeklyScheduleRequest {
	return &model.SetWeeklyScheduleRequest{
		DoctorID: doctorID,
		ClinicID: clinicID,
		Entries: []model.ScheduleEntryRequest{
			{
				DayOfWeek:       1,
				StartTime:       "09:00",
				EndTime:         "12:00",
				DurationMinutes: 30,
				Breaks:          []model.BreakInterval{{Start: "10:30", End: "10:45"}},
			},
		},
		EffectiveFrom: "2025-07-01",
	}
}

func TestSetWeeklySchedule(t *testing.T) {
	svc, repo, _, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()

	created, err := svc.SetWeeklySchedule(context.Background(), doctorActor(doctorID), baseRequest(doctorID, clinicID))
	require.NoError(t, err)
	require.Len(t, created, 1)

	tmpl := created[0]
	assert.Equal(t, 1, tmpl.Version)
	assert.Equal(t, 1, tmpl.DayOfWeek)
	assert.True(t, tmpl.IsActive)
	assert.Nil(t, tmpl.EffectiveTo)
	assert.Len(t, repo.templates, 1)
}

func TestSetWeeklyScheduleForbidden(t *testing.T) {
	svc, _, _, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()

	_, err := svc.SetWeeklySchedule(context.Background(), doctorActor(uuid.New()), baseRequest(doctorID, clinicID))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestSetWeeklyScheduleVersioning(t *testing.T) {
	svc, repo, _, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	actor := doctorActor(doctorID)

	first, err := svc.SetWeeklySchedule(context.Background(), actor, baseRequest(doctorID, clinicID))
	require.NoError(t, err)

	second := baseRequest(doctorID, clinicID)
	second.EffectiveFrom = "2025-08-01"
	second.Entries[0].EndTime = "13:00"

	replacement, err := svc.SetWeeklySchedule(context.Background(), actor, second)
	require.NoError(t, err)
	require.Len(t, replacement, 1)

	assert.Equal(t, 2, replacement[0].Version)
	assert.Len(t, repo.templates, 2, "old versions are closed, never deleted")

	// The prior version is closed the day before the new window opens.
	require.NotNil(t, first[0].EffectiveTo)
	assert.Equal(t, "2025-07-31", first[0].EffectiveTo.Format(model.DateOnly))

	july := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC) // Monday
	august := time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC)

	effective, err := svc.GetEffectiveTemplate(context.Background(), doctorID, clinicID, july)
	require.NoError(t, err)
	assert.Equal(t, 1, effective.Version)

	effective, err = svc.GetEffectiveTemplate(context.Background(), doctorID, clinicID, august)
	require.NoError(t, err)
	assert.Equal(t, 2, effective.Version)
}

func TestSetWeeklyScheduleValidation(t *testing.T) {
	svc, _, _, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	actor := doctorActor(doctorID)

	tests := []struct {
		name   string
		mutate func(*model.SetWeeklyScheduleRequest)
	}{
		{"start after end", func(r *model.SetWeeklyScheduleRequest) {
			r.Entries[0].StartTime = "14:00"
		}},
		{"duplicate day", func(r *model.SetWeeklyScheduleRequest) {
			r.Entries = append(r.Entries, r.Entries[0])
		}},
		{"break outside window", func(r *model.SetWeeklyScheduleRequest) {
			r.Entries[0].Breaks = []model.BreakInterval{{Start: "08:00", End: "08:30"}}
		}},
		{"break touching window edge", func(r *model.SetWeeklyScheduleRequest) {
			r.Entries[0].Breaks = []model.BreakInterval{{Start: "09:00", End: "09:15"}}
		}},
		{"overlapping breaks", func(r *model.SetWeeklyScheduleRequest) {
			r.Entries[0].Breaks = []model.BreakInterval{
				{Start: "10:00", End: "10:30"},
				{Start: "10:15", End: "10:45"},
			}
		}},
		{"inverted break", func(r *model.SetWeeklyScheduleRequest) {
			r.Entries[0].Breaks = []model.BreakInterval{{Start: "10:45", End: "10:30"}}
		}},
		{"bad effective_from", func(r *model.SetWeeklyScheduleRequest) {
			r.EffectiveFrom = "July 1st"
		}},
		{"effective_to before effective_from", func(r *model.SetWeeklyScheduleRequest) {
			to := "2025-06-01"
			r.EffectiveTo = &to
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest(doctorID, clinicID)
			tt.mutate(req)
			_, err := svc.SetWeeklySchedule(context.Background(), actor, req)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestSetWeeklyScheduleDurationFromWorkSettings(t *testing.T) {
	svc, _, _, settingsRepo := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	actor := doctorActor(doctorID)

	req := baseRequest(doctorID, clinicID)
	req.Entries[0].DurationMinutes = 0

	_, err := svc.SetWeeklySchedule(context.Background(), actor, req)
	require.Error(t, err, "no settings and no duration")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	settingsRepo.settings = &model.WorkSettings{
		ClinicID:          clinicID,
		DoctorID:          doctorID,
		Method:            model.BookingMethodFixedSlot,
		AppointmentPeriod: 20,
	}

	created, err := svc.SetWeeklySchedule(context.Background(), actor, req)
	require.NoError(t, err)
	assert.Equal(t, 20, created[0].DurationMinutes)
}

func TestSetWeeklyScheduleOrphanedBookings(t *testing.T) {
	svc, _, slotRepo, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	actor := doctorActor(doctorID)

	// A booked Monday slot at 15:00 falls outside the new 09:00-12:00 window.
	slotRepo.booked = []*model.Slot{{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Date:      time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), // Monday
		StartTime: "15:00",
		EndTime:   "15:30",
		Status:    model.SlotStatusBooked,
	}}

	req := baseRequest(doctorID, clinicID)
	_, err := svc.SetWeeklySchedule(context.Background(), actor, req)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	req.ConfirmOrphaned = true
	created, err := svc.SetWeeklySchedule(context.Background(), actor, req)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestSetWeeklyScheduleBookedSlotInsideNewWindowIsNotOrphaned(t *testing.T) {
	svc, _, slotRepo, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()

	slotRepo.booked = []*model.Slot{{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Date:      time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "09:30",
		EndTime:   "10:00",
		Status:    model.SlotStatusBooked,
	}}

	_, err := svc.SetWeeklySchedule(context.Background(), doctorActor(doctorID), baseRequest(doctorID, clinicID))
	assert.NoError(t, err)
}

func TestSetWeeklyScheduleBookedSlotCrossingBreakIsOrphaned(t *testing.T) {
	svc, _, slotRepo, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()

	slotRepo.booked = []*model.Slot{{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Date:      time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "10:30",
		EndTime:   "11:00",
		Status:    model.SlotStatusBooked,
	}}

	_, err := svc.SetWeeklySchedule(context.Background(), doctorActor(doctorID), baseRequest(doctorID, clinicID))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestGetEffectiveTemplateNotFound(t *testing.T) {
	svc, _, _, _ := newScheduleService(t)
	_, err := svc.GetEffectiveTemplate(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListSchedules(t *testing.T) {
	svc, _, _, _ := newScheduleService(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	actor := doctorActor(doctorID)

	_, err := svc.SetWeeklySchedule(context.Background(), actor, baseRequest(doctorID, clinicID))
	require.NoError(t, err)

	templates, err := svc.ListSchedules(context.Background(), doctorID, clinicID)
	require.NoError(t, err)
	assert.Len(t, templates, 1)

	templates, err = svc.ListSchedules(context.Background(), uuid.New(), clinicID)
	require.NoError(t, err)
	assert.Empty(t, templates)
}
