package portal

import (
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds portal options
type Config interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetListenAddr() string
	GetViewsDir() string
	GetSessionFile() string
	GetLoginRoute() string
	GetAdminHomeRoute() string
	GetMemberHomeRoute() string
	GetPollInterval() time.Duration
	GetResendCooldown() time.Duration
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// SessionStore persists the bearer token and the cached user record across
// page loads. No validation, no side effects beyond storage.
type SessionStore interface {
	SetSession(token string, user *User) error
	Session() (token string, user *User, ok bool)
	Clear() error
	SeenNotificationIDs() []int64
	SetSeenNotificationIDs(ids []int64) error
}

// DefaultLogger returns the stdout fallback logger used when no Logger is
// injected.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] PORTAL "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] PORTAL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] PORTAL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] PORTAL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
