package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/scheduling-api/internal/repository"
)

type scheduleRepository struct {
	BaseRepository
}

type overrideRepository struct {
	BaseRepository
}

type slotRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type workSettingsRepository struct {
	BaseRepository
}

type clinicRepository struct {
	BaseRepository
}

type notificationRepository struct {
	BaseRepository
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{NewBaseRepository(db)}
}

func NewOverrideRepository(db *sqlx.DB) repository.OverrideRepository {
	return &overrideRepository{NewBaseRepository(db)}
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewWorkSettingsRepository(db *sqlx.DB) repository.WorkSettingsRepository {
	return &workSettingsRepository{NewBaseRepository(db)}
}

func NewClinicRepository(db *sqlx.DB) repository.ClinicRepository {
	return &clinicRepository{NewBaseRepository(db)}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{NewBaseRepository(db)}
}
