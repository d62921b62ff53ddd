package model

import (
	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a fire-and-forget message to a doctor, clinic or patient.
// Delivery failures never roll back the operation that produced them.
type Notification struct {
	Base
	EntityType string             `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID          `db:"entity_id" json:"entity_id"`
	Title      string             `db:"title" json:"title"`
	Body       string             `db:"body" json:"body"`
	Status     NotificationStatus `db:"status" json:"status"`
}
