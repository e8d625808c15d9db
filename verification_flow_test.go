package portal_test

import (
	"testing"
	"time"

	portal "github.com/istokvel/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationFlow_HappyPath(t *testing.T) {
	flow := portal.NewVerificationFlow("email", "thandi@example.com")

	assert.Equal(t, portal.StageUnverified, flow.Stage())
	require.NoError(t, flow.MarkCodeSent())
	assert.Equal(t, portal.StageCodeSent, flow.Stage())
	require.NoError(t, flow.MarkVerified())
	assert.Equal(t, portal.StageVerified, flow.Stage())
}

func TestVerificationFlow_CannotVerifyBeforeCodeSent(t *testing.T) {
	flow := portal.NewVerificationFlow("email", "thandi@example.com")
	assert.Error(t, flow.MarkVerified())
}

func TestVerificationFlow_ResendCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	flow := portal.NewVerificationFlow("sms", "+27821234567",
		portal.WithFlowClock(func() time.Time { return now }),
		portal.WithResendCooldown(60*time.Second),
	)

	require.NoError(t, flow.MarkCodeSent())
	assert.False(t, flow.CanResend())
	assert.Equal(t, 60*time.Second, flow.ResendAvailableIn())

	// mid-cooldown resend is rejected
	now = now.Add(30 * time.Second)
	assert.Error(t, flow.MarkCodeSent())
	assert.Equal(t, 30*time.Second, flow.ResendAvailableIn())

	// cooldown elapsed
	now = now.Add(31 * time.Second)
	assert.True(t, flow.CanResend())
	require.NoError(t, flow.MarkCodeSent())
	assert.Equal(t, 60*time.Second, flow.ResendAvailableIn())
}

func TestVerificationFlow_VerifiedIsTerminal(t *testing.T) {
	flow := portal.NewVerificationFlow("email", "thandi@example.com")
	require.NoError(t, flow.MarkCodeSent())
	require.NoError(t, flow.MarkVerified())

	assert.Error(t, flow.MarkCodeSent())
	assert.Error(t, flow.MarkVerified())
	assert.False(t, flow.CanResend())
}
