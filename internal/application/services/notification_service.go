package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/docsched/backend/internal/domain/entities"
	"github.com/docsched/backend/internal/domain/providers"
	"github.com/docsched/backend/internal/domain/repositories"
)

// NotificationService consumes reservation events and delivers notifications
// to requesters through the outbound gateway. Every delivery attempt is
// persisted as a reservation_notifications record before the send, so a
// gateway failure never loses the audit trail.
type NotificationService struct {
	db            *sqlx.DB
	sender        providers.NotificationSender
	eventBus      providers.EventBus
	requesterRepo repositories.RequesterRepository
	providerRepo  repositories.ProviderRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	db *sqlx.DB,
	sender providers.NotificationSender,
	eventBus providers.EventBus,
	requesterRepo repositories.RequesterRepository,
	providerRepo repositories.ProviderRepository,
) *NotificationService {
	return &NotificationService{
		db:            db,
		sender:        sender,
		eventBus:      eventBus,
		requesterRepo: requesterRepo,
		providerRepo:  providerRepo,
	}
}

// Start subscribes to the reservation event channel and processes events
// until ctx is cancelled. It runs the consume loop in a goroutine and
// returns immediately.
func (n *NotificationService) Start(ctx context.Context, channel string) error {
	events, err := n.eventBus.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	go func() {
		for event := range events {
			if err := n.handleEvent(ctx, event); err != nil {
				log.Warn().Err(err).
					Str("event_id", event.ID).
					Str("event_type", string(event.Type)).
					Msg("Failed to process reservation event")
			}
		}
		log.Info().Str("channel", channel).Msg("Notification consumer stopped")
	}()

	return nil
}

func (n *NotificationService) handleEvent(ctx context.Context, event *entities.ReservationEvent) error {
	switch event.Type {
	case entities.EventReservationConfirmed:
		return n.sendForEvent(ctx, event, entities.NotificationBookingConfirmation)
	case entities.EventReservationCancelled:
		return n.sendForEvent(ctx, event, entities.NotificationCancellation)
	case entities.EventWindowCancelled:
		// Per-reservation cancellation events follow the window event, so
		// there is nothing to deliver for the window itself.
		return nil
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

func (n *NotificationService) sendForEvent(ctx context.Context, event *entities.ReservationEvent, notifType entities.NotificationType) error {
	if event.RequesterID == "" {
		return fmt.Errorf("event %s has no requester", event.ID)
	}

	requester, err := n.requesterRepo.GetByID(ctx, event.RequesterID)
	if err != nil {
		return fmt.Errorf("failed to load requester %s: %w", event.RequesterID, err)
	}

	providerName := event.ProviderID
	if provider, err := n.providerRepo.GetByID(ctx, event.ProviderID); err == nil {
		providerName = provider.Name
	}

	body := n.renderBody(notifType, requester.Name, providerName, event)

	notification := &entities.ReservationNotification{
		ID:               uuid.New().String(),
		ReservationID:    event.ReservationID,
		NotificationType: notifType,
		Recipient:        requester.Email,
		Body:             body,
		Status:           entities.NotificationStatusPending,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}

	if err := n.createNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}

	messageID, sendErr := n.sender.Send(ctx, notification.Recipient, notification.Body)

	now := time.Now().UTC()
	if sendErr != nil {
		errMsg := sendErr.Error()
		notification.Status = entities.NotificationStatusFailed
		notification.FailedAt = &now
		notification.ErrorMessage = &errMsg
	} else {
		notification.Status = entities.NotificationStatusSent
		notification.MessageID = &messageID
		notification.SentAt = &now
	}
	notification.UpdatedAt = now

	if err := n.updateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	return sendErr
}

func (n *NotificationService) renderBody(notifType entities.NotificationType, requesterName, providerName string, event *entities.ReservationEvent) string {
	switch notifType {
	case entities.NotificationBookingConfirmation:
		return fmt.Sprintf("Hi %s, your appointment with %s on %s at %s is confirmed.",
			requesterName, providerName, event.Date, event.Time)
	case entities.NotificationCancellation:
		return fmt.Sprintf("Hi %s, your appointment with %s on %s has been cancelled.",
			requesterName, providerName, event.Date)
	default:
		return fmt.Sprintf("Hi %s, there is an update to your appointment with %s on %s.",
			requesterName, providerName, event.Date)
	}
}

// Database operations
func (n *NotificationService) createNotification(ctx context.Context, notification *entities.ReservationNotification) error {
	query := `
		INSERT INTO reservation_notifications
		(id, reservation_id, notification_type, recipient, body, status,
		 message_id, sent_at, failed_at, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.ID, notification.ReservationID, notification.NotificationType,
		notification.Recipient, notification.Body, notification.Status,
		notification.MessageID, notification.SentAt, notification.FailedAt,
		notification.ErrorMessage, notification.CreatedAt, notification.UpdatedAt,
	)
	return err
}

func (n *NotificationService) updateNotification(ctx context.Context, notification *entities.ReservationNotification) error {
	query := `
		UPDATE reservation_notifications
		SET status = $1, message_id = $2, sent_at = $3, failed_at = $4,
		    error_message = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.Status, notification.MessageID, notification.SentAt,
		notification.FailedAt, notification.ErrorMessage, notification.UpdatedAt,
		notification.ID,
	)
	return err
}
