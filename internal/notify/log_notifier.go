package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log instead of delivering them.
// It is the default when no outbound provider is wired in, and keeps the
// dispatcher path exercised in dev and test environments.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, task Task) error {
	slog.Info("[Notify] Notification (log delivery)",
		"recipient", task.Recipient,
		"subject", task.Subject,
		"body", task.Body)
	return nil
}
