package portal

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// VerificationStage is a step in the signup -> verify flow.
type VerificationStage string

const (
	// StageUnverified is a freshly registered account with no code sent.
	StageUnverified VerificationStage = "unverified"
	// StageCodeSent means a code is out and the user may enter or resend it.
	StageCodeSent VerificationStage = "code_sent"
	// StageVerified is terminal; the user is redirected to login.
	StageVerified VerificationStage = "verified"
)

// DefaultResendCooldown is the visible countdown between resends. A UX guard
// only; the server enforces its own throttling.
const DefaultResendCooldown = 60 * time.Second

// ErrInvalidFlowTransition is returned when a requested stage change is not
// allowed from the current stage.
var ErrInvalidFlowTransition = goerrors.New("invalid verification flow transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_VERIFICATION_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// ErrResendOnCooldown is returned while the resend countdown is running.
var ErrResendOnCooldown = goerrors.New("verification code resend is on cooldown", goerrors.CategoryRateLimit).
	WithTextCode("RESEND_COOLDOWN")

// VerificationFlow tracks local wizard state for the signup -> verify flow:
// unverified -> code_sent -> verified. An expired or invalid code keeps the
// flow in code_sent; resending is gated by the cooldown.
type VerificationFlow struct {
	stage       VerificationStage
	channel     string
	destination string
	cooldown    time.Duration
	lastSentAt  time.Time
	now         func() time.Time
}

// VerificationFlowOption customizes a VerificationFlow.
type VerificationFlowOption func(*VerificationFlow)

// WithFlowClock injects a custom clock (useful for tests).
func WithFlowClock(clock func() time.Time) VerificationFlowOption {
	return func(f *VerificationFlow) {
		if clock != nil {
			f.now = clock
		}
	}
}

// WithResendCooldown overrides the resend countdown duration.
func WithResendCooldown(d time.Duration) VerificationFlowOption {
	return func(f *VerificationFlow) {
		if d > 0 {
			f.cooldown = d
		}
	}
}

// NewVerificationFlow starts a flow for the given channel ("email" or "sms")
// and destination (address or phone number).
func NewVerificationFlow(channel, destination string, opts ...VerificationFlowOption) *VerificationFlow {
	f := &VerificationFlow{
		stage:       StageUnverified,
		channel:     channel,
		destination: destination,
		cooldown:    DefaultResendCooldown,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Stage returns the current stage.
func (f *VerificationFlow) Stage() VerificationStage {
	return f.stage
}

// Channel returns the delivery channel.
func (f *VerificationFlow) Channel() string {
	return f.channel
}

// Destination returns the address or phone the code was sent to.
func (f *VerificationFlow) Destination() string {
	return f.destination
}

// MarkCodeSent records a code delivery. From unverified it always succeeds;
// from code_sent it is a resend and must respect the cooldown.
func (f *VerificationFlow) MarkCodeSent() error {
	switch f.stage {
	case StageUnverified:
	case StageCodeSent:
		if remaining := f.ResendAvailableIn(); remaining > 0 {
			return flowError(ErrResendOnCooldown, map[string]any{
				"retry_in": remaining.Round(time.Second).String(),
			})
		}
	default:
		return flowError(ErrInvalidFlowTransition, map[string]any{
			"from": string(f.stage), "to": string(StageCodeSent),
		})
	}

	f.stage = StageCodeSent
	f.lastSentAt = f.now()
	return nil
}

// MarkVerified completes the flow. Only valid while a code is out.
func (f *VerificationFlow) MarkVerified() error {
	if f.stage != StageCodeSent {
		return flowError(ErrInvalidFlowTransition, map[string]any{
			"from": string(f.stage), "to": string(StageVerified),
		})
	}
	f.stage = StageVerified
	return nil
}

// CanResend reports whether the cooldown has elapsed.
func (f *VerificationFlow) CanResend() bool {
	return f.stage == StageCodeSent && f.ResendAvailableIn() == 0
}

// ResendAvailableIn returns the remaining countdown, zero when ready.
func (f *VerificationFlow) ResendAvailableIn() time.Duration {
	if f.stage != StageCodeSent || f.lastSentAt.IsZero() {
		return 0
	}
	remaining := f.cooldown - f.now().Sub(f.lastSentAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func flowError(base *goerrors.Error, metadata map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = base
	return clone.WithMetadata(metadata)
}
