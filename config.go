package portal

import (
	"os"
	"strconv"
	"time"
)

// PortalConfig is the env-driven Config implementation used by the portal
// binary. Every field has a working default so a bare environment still runs
// against a local backend.
type PortalConfig struct {
	APIBaseURL           string
	HTTPTimeout          time.Duration
	ListenAddr           string
	ViewsDir             string
	SessionFile          string
	LoginRoute           string
	AdminHomeRoute       string
	MemberHomeRoute      string
	PollInterval         time.Duration
	ResendCooldown       time.Duration
	RejectedRouteKey     string
	RejectedRouteDefault string
}

// NewConfigFromEnv builds a PortalConfig from PORTAL_* environment variables,
// falling back to defaults for anything unset.
func NewConfigFromEnv() *PortalConfig {
	return &PortalConfig{
		APIBaseURL:           envString("PORTAL_API_BASE_URL", DefaultAPIBaseURL),
		HTTPTimeout:          envDuration("PORTAL_HTTP_TIMEOUT", DefaultHTTPTimeout),
		ListenAddr:           envString("PORTAL_LISTEN_ADDR", ":3000"),
		ViewsDir:             envString("PORTAL_VIEWS_DIR", "./views"),
		SessionFile:          envString("PORTAL_SESSION_FILE", ".portal-session.json"),
		LoginRoute:           envString("PORTAL_LOGIN_ROUTE", "/login"),
		AdminHomeRoute:       envString("PORTAL_ADMIN_HOME", "/admin/dashboard"),
		MemberHomeRoute:      envString("PORTAL_MEMBER_HOME", "/dashboard"),
		PollInterval:         envDuration("PORTAL_POLL_INTERVAL", DefaultPollInterval),
		ResendCooldown:       envDuration("PORTAL_RESEND_COOLDOWN", DefaultResendCooldown),
		RejectedRouteKey:     envString("PORTAL_REJECTED_ROUTE_KEY", "redirect_to"),
		RejectedRouteDefault: envString("PORTAL_REJECTED_ROUTE_DEFAULT", "/dashboard"),
	}
}

func (c *PortalConfig) GetAPIBaseURL() string           { return c.APIBaseURL }
func (c *PortalConfig) GetHTTPTimeout() time.Duration   { return c.HTTPTimeout }
func (c *PortalConfig) GetListenAddr() string           { return c.ListenAddr }
func (c *PortalConfig) GetViewsDir() string             { return c.ViewsDir }
func (c *PortalConfig) GetSessionFile() string          { return c.SessionFile }
func (c *PortalConfig) GetLoginRoute() string           { return c.LoginRoute }
func (c *PortalConfig) GetAdminHomeRoute() string       { return c.AdminHomeRoute }
func (c *PortalConfig) GetMemberHomeRoute() string      { return c.MemberHomeRoute }
func (c *PortalConfig) GetPollInterval() time.Duration  { return c.PollInterval }
func (c *PortalConfig) GetResendCooldown() time.Duration { return c.ResendCooldown }
func (c *PortalConfig) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c *PortalConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}
