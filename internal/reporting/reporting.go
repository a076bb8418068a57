package reporting

import (
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// Capture sends a failure to Sentry tagged with feature, operation, and the
// caller, then logs it. Called before an error is returned to the API layer
// so observability is synchronous with failure.
func Capture(feature, operation string, userID uuid.UUID, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("feature", feature)
		scope.SetTag("operation", operation)
		scope.SetUser(sentry.User{ID: userID.String()})
		sentry.CaptureException(err)
	})

	slog.Error("operation failed",
		"feature", feature,
		"action", operation,
		"user_id", userID.String(),
		"error", err.Error(),
	)
}
