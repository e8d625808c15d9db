// Package web is the portal's server-rendered shell: a fiber app with django
// templates, route guards, and controllers for the member and admin surfaces.
// All domain state lives behind the backend API; the shell only renders what
// the portal services resolve.
package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
	portal "github.com/istokvel/go-portal"
	"github.com/istokvel/go-portal/middleware/guard"
)

// Server wires the fiber app, the portal services, and the route guards.
type Server struct {
	app     *fiber.App
	config  portal.Config
	logger  portal.Logger
	session *portal.SessionManager

	auth          *portal.Authenticator
	profile       *portal.ProfileService
	notifications *portal.NotificationService
	kyc           *portal.KYCService
	admin         *portal.AdminService
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithServerLogger overrides the default logger.
func WithServerLogger(logger portal.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Services bundles the portal services the controllers depend on.
type Services struct {
	Session       *portal.SessionManager
	Auth          *portal.Authenticator
	Profile       *portal.ProfileService
	Notifications *portal.NotificationService
	KYC           *portal.KYCService
	Admin         *portal.AdminService
}

// NewServer builds the fiber app with the django view engine and registers
// every route group behind its guard.
func NewServer(config portal.Config, services Services, opts ...ServerOption) *Server {
	s := &Server{
		config:        config,
		logger:        portal.DefaultLogger(),
		session:       services.Session,
		auth:          services.Auth,
		profile:       services.Profile,
		notifications: services.Notifications,
		kyc:           services.KYC,
		admin:         services.Admin,
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := django.New(config.GetViewsDir(), ".html")

	s.app = fiber.New(fiber.Config{
		Views:        engine,
		ViewsLayout:  "layout",
		ErrorHandler: s.errorHandler,
	})

	s.routes()
	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the configured address.
func (s *Server) Listen() error {
	return s.app.Listen(s.config.GetListenAddr())
}

// Shutdown drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	loginRoute := s.config.GetLoginRoute()

	// public auth surface
	s.app.Get(loginRoute, s.LoginShow)
	s.app.Post(loginRoute, s.LoginPost)
	s.app.Post("/login/2fa", s.TwoFactorPost)
	s.app.Get("/register", s.RegisterShow)
	s.app.Post("/register", s.RegisterPost)
	s.app.Get("/forgot-password", s.ForgotPasswordShow)
	s.app.Post("/forgot-password", s.ForgotPasswordPost)
	s.app.Get("/reset-password", s.ResetPasswordShow)
	s.app.Post("/reset-password", s.ResetPasswordPost)
	s.app.Get("/verify", s.VerifyShow)
	s.app.Post("/verify", s.VerifyPost)
	s.app.Post("/verify/resend", s.VerifyResend)
	s.app.Get("/logout", s.Logout)

	// member surface
	member := s.app.Group("/", guard.New(guard.Config{
		Session:          s.session,
		LoginRoute:       loginRoute,
		RejectedRouteKey: s.config.GetRejectedRouteKey(),
	}))
	member.Get("/dashboard", s.Dashboard)
	member.Get("/profile", s.ProfileShow)
	member.Post("/profile", s.ProfilePost)
	member.Get("/notifications", s.NotificationsList)
	member.Post("/notifications/read", s.NotificationsMarkRead)
	member.Post("/notifications/read-all", s.NotificationsMarkAllRead)
	member.Get("/kyc", s.KYCShow)
	member.Post("/kyc/section/:section", s.KYCSectionPost)
	member.Post("/kyc/submit", s.KYCSubmitPost)

	// admin surface
	admin := s.app.Group("/admin", guard.New(guard.Config{
		Session:          s.session,
		Role:             portal.RoleAdmin,
		LoginRoute:       loginRoute,
		RejectedRouteKey: s.config.GetRejectedRouteKey(),
	}))
	admin.Get("/dashboard", s.AdminDashboard)
	admin.Get("/kyc", s.AdminKYCList)
	admin.Post("/kyc/:id/approve", s.AdminKYCApprove)
	admin.Post("/kyc/:id/reject", s.AdminKYCReject)
	admin.Get("/payouts", s.AdminPayouts)
	admin.Post("/payouts/:id/approve", s.AdminPayoutApprove)
	admin.Post("/payouts/:id/reject", s.AdminPayoutReject)
	admin.Get("/team", s.AdminTeam)
	admin.Post("/team", s.AdminTeamCreate)
	admin.Post("/team/:id/role", s.AdminTeamRoleUpdate)
	admin.Post("/roles", s.AdminRoleCreate)
	admin.Post("/roles/:id", s.AdminRoleUpdate)
	admin.Post("/roles/:id/delete", s.AdminRoleDelete)
	admin.Get("/audit-logs", s.AdminAuditLogs)
	admin.Get("/analytics", s.AdminAnalytics)

	s.app.Get("/", func(c *fiber.Ctx) error {
		if s.session.IsAuthenticated() {
			if s.session.HasRole(portal.RoleAdmin) {
				return c.Redirect(s.config.GetAdminHomeRoute())
			}
			return c.Redirect(s.config.GetMemberHomeRoute())
		}
		return c.Redirect(loginRoute)
	})
}

// viewContext merges the session helpers with page-specific bindings.
func (s *Server) viewContext(extra fiber.Map) fiber.Map {
	ctx := fiber.Map{}
	for k, v := range portal.TemplateHelpers(s.session) {
		ctx[k] = v
	}
	for k, v := range extra {
		ctx[k] = v
	}
	return ctx
}

// errorHandler maps errors to responses: revoked or unauthorized sessions
// redirect to login, everything else renders the 500 page.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if portal.IsAuthRevokedError(err) {
		return c.Redirect(s.config.GetLoginRoute())
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryAuth {
		return c.Redirect(s.config.GetLoginRoute())
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return c.Status(fiberErr.Code).SendString(fiberErr.Message)
	}

	s.logger.Error("Unhandled request error", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).Render("errors/500", s.viewContext(fiber.Map{
		"message": portal.MessageFromError(err, "Something went wrong. Please try again."),
	}))
}
