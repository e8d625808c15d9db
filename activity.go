package portal

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventLoginChallenge    ActivityEventType = "auth.login.2fa_challenge"
	ActivityEventSignupSuccess     ActivityEventType = "auth.signup.success"
	ActivityEventSignupFailure     ActivityEventType = "auth.signup.failure"
	ActivityEventEmailVerified     ActivityEventType = "auth.verify.email"
	ActivityEventPhoneVerified     ActivityEventType = "auth.verify.phone"
	ActivityEventCodeResent        ActivityEventType = "auth.verify.resend"
	ActivityEventLogout            ActivityEventType = "auth.logout"
	ActivityEventResetRequested    ActivityEventType = "auth.password_reset.requested"
	ActivityEventResetCompleted    ActivityEventType = "auth.password_reset.completed"
	ActivityEventSessionRevoked    ActivityEventType = "session.revoked"
	ActivityEventSessionInvalidate ActivityEventType = "session.invalidated"
)

// ActivityEvent captures telemetry-friendly information about an auth action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     int64
	Identifier string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
