package portal_test

import (
	"testing"
	"time"

	portal "github.com/istokvel/go-portal"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigFromEnv_Defaults(t *testing.T) {
	config := portal.NewConfigFromEnv()

	assert.Equal(t, portal.DefaultAPIBaseURL, config.GetAPIBaseURL())
	assert.Equal(t, portal.DefaultHTTPTimeout, config.GetHTTPTimeout())
	assert.Equal(t, portal.DefaultPollInterval, config.GetPollInterval())
	assert.Equal(t, portal.DefaultResendCooldown, config.GetResendCooldown())
	assert.Equal(t, "/login", config.GetLoginRoute())
	assert.Equal(t, "/admin/dashboard", config.GetAdminHomeRoute())
	assert.Equal(t, "/dashboard", config.GetMemberHomeRoute())
}

func TestNewConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "https://api.istokvel.example")
	t.Setenv("PORTAL_HTTP_TIMEOUT", "30s")
	t.Setenv("PORTAL_POLL_INTERVAL", "45")

	config := portal.NewConfigFromEnv()

	assert.Equal(t, "https://api.istokvel.example", config.GetAPIBaseURL())
	assert.Equal(t, 30*time.Second, config.GetHTTPTimeout())
	// bare integers read as seconds
	assert.Equal(t, 45*time.Second, config.GetPollInterval())
}

func TestNewConfigFromEnv_GarbageDurationFallsBack(t *testing.T) {
	t.Setenv("PORTAL_HTTP_TIMEOUT", "soon")

	config := portal.NewConfigFromEnv()
	assert.Equal(t, portal.DefaultHTTPTimeout, config.GetHTTPTimeout())
}
