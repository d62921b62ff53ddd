package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// DateOnly is the wire format for calendar dates.
const DateOnly = "2006-01-02"

// ClockFormat is the wire format for times of day. Values are zero-padded
// ("09:00"), so lexicographic comparison matches chronological order.
const ClockFormat = "15:04"
