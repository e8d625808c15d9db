// Package guard provides the route guard middleware for the portal web
// shell: declarative wrappers that gate route groups on session state and
// role. The guard is a render gate only; the backend re-authorizes every
// API call regardless of what the guard allowed through.
package guard

import (
	"time"

	"github.com/gofiber/fiber/v2"
	portal "github.com/istokvel/go-portal"
)

// DefaultContextKey is where the resolved user lands in fiber locals.
const DefaultContextKey = "current_user"

// Config drives a guard instance.
type Config struct {
	// Session resolves the current session synchronously from local state.
	Session *portal.SessionManager

	// Role, when set, requires an exact role match on top of authentication.
	Role portal.UserRole

	// LoginRoute is the redirect target for rejected requests.
	LoginRoute string

	// ContextKey is the fiber locals key for the resolved user record.
	ContextKey string

	// RejectedRouteKey is the cookie recording the originally requested path
	// so login can send the user back where they were headed.
	RejectedRouteKey string

	// Filter skips the guard when it returns true for a request.
	Filter func(*fiber.Ctx) bool
}

func (cfg Config) withDefaults() Config {
	if cfg.LoginRoute == "" {
		cfg.LoginRoute = "/login"
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	return cfg
}

// New returns the guard middleware for the given config. Unauthenticated or
// wrong-role requests redirect to the login route, recording the rejected
// path when a cookie key is configured.
func New(cfg Config) fiber.Handler {
	cfg = cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		user, ok := cfg.Session.CurrentUser()
		if !ok {
			return reject(c, cfg)
		}

		if cfg.Role != "" && user.Role != cfg.Role {
			return reject(c, cfg)
		}

		c.Locals(cfg.ContextKey, user)
		c.SetUserContext(portal.WithUser(c.UserContext(), user))
		return c.Next()
	}
}

// RequireAuth gates on any authenticated session.
func RequireAuth(session *portal.SessionManager, loginRoute string) fiber.Handler {
	return New(Config{Session: session, LoginRoute: loginRoute})
}

// RequireAdmin gates on an authenticated admin session.
func RequireAdmin(session *portal.SessionManager, loginRoute string) fiber.Handler {
	return New(Config{Session: session, Role: portal.RoleAdmin, LoginRoute: loginRoute})
}

// UserFromLocals fetches the guard-resolved user from fiber locals.
func UserFromLocals(c *fiber.Ctx, key string) (*portal.User, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	user, ok := c.Locals(key).(*portal.User)
	return user, ok
}

func reject(c *fiber.Ctx, cfg Config) error {
	if cfg.RejectedRouteKey != "" && c.Method() == fiber.MethodGet {
		c.Cookie(&fiber.Cookie{
			Name:     cfg.RejectedRouteKey,
			Value:    c.OriginalURL(),
			Path:     "/",
			Expires:  time.Now().Add(10 * time.Minute),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	status := fiber.StatusSeeOther
	if c.Method() == fiber.MethodGet {
		status = fiber.StatusFound
	}
	return c.Redirect(cfg.LoginRoute, status)
}
