package entities

import "time"

// NotificationType represents the kind of outbound notification
type NotificationType string

const (
	NotificationBookingConfirmation NotificationType = "booking_confirmation"
	NotificationCancellation        NotificationType = "cancellation"
	NotificationWindowCancelled     NotificationType = "window_cancelled"
)

// NotificationStatus tracks delivery state of an outbound notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// ReservationNotification is the persisted record of one outbound message
// attempt tied to a reservation event
type ReservationNotification struct {
	ID               string             `json:"id" db:"id"`
	ReservationID    string             `json:"reservation_id" db:"reservation_id"`
	NotificationType NotificationType   `json:"notification_type" db:"notification_type"`
	Recipient        string             `json:"recipient" db:"recipient"`
	Body             string             `json:"body" db:"body"`
	Status           NotificationStatus `json:"status" db:"status"`
	MessageID        *string            `json:"message_id,omitempty" db:"message_id"`
	SentAt           *time.Time         `json:"sent_at,omitempty" db:"sent_at"`
	FailedAt         *time.Time         `json:"failed_at,omitempty" db:"failed_at"`
	ErrorMessage     *string            `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}
