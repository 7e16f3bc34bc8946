package providers

import "context"

// NotificationSender delivers a rendered message to a recipient through an
// outbound gateway. Implementations return the gateway's message ID.
type NotificationSender interface {
	Send(ctx context.Context, recipient, body string) (string, error)
}
