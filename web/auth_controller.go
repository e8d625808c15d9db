package web

import (
	"net/url"
	"strconv"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	portal "github.com/istokvel/go-portal"
)

// verification flows are keyed by destination and live only for the duration
// of the signup -> verify journey.
var verificationFlows sync.Map

func flowFor(channel, destination string, cooldown time.Duration) *portal.VerificationFlow {
	key := channel + ":" + destination
	if existing, ok := verificationFlows.Load(key); ok {
		return existing.(*portal.VerificationFlow)
	}
	flow := portal.NewVerificationFlow(channel, destination, portal.WithResendCooldown(cooldown))
	actual, _ := verificationFlows.LoadOrStore(key, flow)
	return actual.(*portal.VerificationFlow)
}

func dropFlow(channel, destination string) {
	verificationFlows.Delete(channel + ":" + destination)
}

// LoginPayload carries the login form fields.
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required),
	)
}

// LoginShow renders the login page. An authenticated session skips straight
// to its role home.
func (s *Server) LoginShow(c *fiber.Ctx) error {
	if user, ok := s.session.CurrentUser(); ok {
		if user.Role == portal.RoleAdmin {
			return c.Redirect(s.config.GetAdminHomeRoute())
		}
		return c.Redirect(s.config.GetMemberHomeRoute())
	}

	return c.Render("login", s.viewContext(fiber.Map{
		"message": c.Query("message"),
	}))
}

// LoginPost handles credential submission. A two_factor_required outcome
// renders the OTP step without establishing a session; success redirects to
// the rejected route when one was recorded, otherwise the role home.
func (s *Server) LoginPost(c *fiber.Ctx) error {
	var payload LoginPayload
	if err := c.BodyParser(&payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return c.Render("login", s.viewContext(fiber.Map{
			"errors": err,
			"record": payload,
		}))
	}

	result := s.auth.Login(c.UserContext(), payload.Email, payload.Password)

	if result.TwoFactorRequired {
		return c.Render("login_2fa", s.viewContext(fiber.Map{
			"pending_user_id": result.PendingUserID,
			"message":         result.Message,
		}))
	}

	if !result.Success {
		return c.Render("login", s.viewContext(fiber.Map{
			"error":  result.Message,
			"record": payload,
		}))
	}

	return c.Redirect(s.consumeRejectedRoute(c, result.RedirectTo))
}

// TwoFactorPost completes a pending 2FA challenge.
func (s *Server) TwoFactorPost(c *fiber.Ctx) error {
	pendingUserID, _ := strconv.ParseInt(c.FormValue("pending_user_id"), 10, 64)
	code := c.FormValue("otp_code")

	result := s.auth.VerifyTwoFactorLogin(c.UserContext(), pendingUserID, code)
	if !result.Success {
		return c.Render("login_2fa", s.viewContext(fiber.Map{
			"pending_user_id": pendingUserID,
			"error":           result.Message,
		}))
	}

	return c.Redirect(s.consumeRejectedRoute(c, result.RedirectTo))
}

// ForgotPasswordShow renders the reset request form.
func (s *Server) ForgotPasswordShow(c *fiber.Ctx) error {
	return c.Render("forgot_password", s.viewContext(fiber.Map{}))
}

// ForgotPasswordPost requests a reset link. The response never reveals
// whether the email has an account.
func (s *Server) ForgotPasswordPost(c *fiber.Ctx) error {
	email := c.FormValue("email")
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return c.Render("forgot_password", s.viewContext(fiber.Map{
			"error":  "Please enter a valid email address",
			"record": fiber.Map{"Email": email},
		}))
	}

	result := s.auth.RequestPasswordReset(c.UserContext(), email)
	return c.Render("forgot_password", s.viewContext(fiber.Map{
		"message": result.Message,
	}))
}

// ResetPasswordPayload carries the reset finalize form fields.
type ResetPasswordPayload struct {
	Token           string `json:"token" form:"token"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate will validate the payload
func (p ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&p.ConfirmPassword, validation.Required, validation.In(p.Password).Error("passwords do not match")),
	)
}

// ResetPasswordShow renders the new-password form for the emailed token.
func (s *Server) ResetPasswordShow(c *fiber.Ctx) error {
	return c.Render("reset_password", s.viewContext(fiber.Map{
		"token": c.Query("token"),
	}))
}

// ResetPasswordPost finalizes the reset and sends the user to login.
func (s *Server) ResetPasswordPost(c *fiber.Ctx) error {
	var payload ResetPasswordPayload
	if err := c.BodyParser(&payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return c.Render("reset_password", s.viewContext(fiber.Map{
			"token":  payload.Token,
			"errors": err,
		}))
	}

	result := s.auth.ResetPassword(c.UserContext(), payload.Token, payload.Password)
	if !result.Success {
		return c.Render("reset_password", s.viewContext(fiber.Map{
			"token": payload.Token,
			"error": result.Message,
		}))
	}

	// some backends log the user straight in after a reset
	if result.User != nil {
		return c.Redirect(result.RedirectTo)
	}
	return c.Redirect(s.config.GetLoginRoute() + "?message=" + url.QueryEscape(result.Message))
}

// RegisterPayload carries the registration form fields.
type RegisterPayload struct {
	FullName        string `json:"full_name" form:"full_name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate will validate the payload
func (p RegisterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Phone, validation.Required, validation.Length(9, 15)),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&p.ConfirmPassword, validation.Required, validation.In(p.Password).Error("passwords do not match")),
	)
}

// RegisterShow renders the registration page.
func (s *Server) RegisterShow(c *fiber.Ctx) error {
	return c.Render("register", s.viewContext(fiber.Map{}))
}

// RegisterPost creates the account and hands off to email verification.
func (s *Server) RegisterPost(c *fiber.Ctx) error {
	var payload RegisterPayload
	if err := c.BodyParser(&payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return c.Render("register", s.viewContext(fiber.Map{
			"errors": err,
			"record": payload,
		}))
	}

	result := s.auth.Signup(c.UserContext(), portal.SignupPayload{
		FullName:        payload.FullName,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if !result.Success {
		return c.Render("register", s.viewContext(fiber.Map{
			"error":  result.Message,
			"record": payload,
		}))
	}

	flow := flowFor("email", payload.Email, s.config.GetResendCooldown())
	if err := flow.MarkCodeSent(); err != nil {
		s.logger.Debug("verification flow already active", "error", err)
	}

	return c.Redirect("/verify?channel=email&destination=" + url.QueryEscape(payload.Email))
}

// VerifyShow renders the code entry page for the active verification flow.
func (s *Server) VerifyShow(c *fiber.Ctx) error {
	channel := c.Query("channel", "email")
	destination := c.Query("destination")
	flow := flowFor(channel, destination, s.config.GetResendCooldown())

	return c.Render("verify", s.viewContext(fiber.Map{
		"channel":     channel,
		"destination": destination,
		"can_resend":  flow.CanResend(),
		"retry_in":    int(flow.ResendAvailableIn().Seconds()),
	}))
}

// VerifyPost submits the OTP for the active flow. Email success redirects to
// login; phone success may establish a session directly.
func (s *Server) VerifyPost(c *fiber.Ctx) error {
	channel := c.FormValue("channel", "email")
	destination := c.FormValue("destination")
	code := c.FormValue("code")
	flow := flowFor(channel, destination, s.config.GetResendCooldown())

	if channel == "sms" {
		result := s.auth.VerifyPhoneCode(c.UserContext(), destination, code)
		if !result.Success {
			return c.Render("verify", s.viewContext(fiber.Map{
				"channel":     channel,
				"destination": destination,
				"error":       result.Message,
				"can_resend":  flow.CanResend(),
				"retry_in":    int(flow.ResendAvailableIn().Seconds()),
			}))
		}
		if err := flow.MarkVerified(); err != nil {
			s.logger.Debug("verification flow transition rejected", "error", err)
		}
		dropFlow(channel, destination)
		return c.Redirect(result.RedirectTo)
	}

	result := s.auth.VerifyEmailCode(c.UserContext(), destination, code)
	if !result.Success {
		return c.Render("verify", s.viewContext(fiber.Map{
			"channel":     channel,
			"destination": destination,
			"error":       result.Message,
			"can_resend":  flow.CanResend(),
			"retry_in":    int(flow.ResendAvailableIn().Seconds()),
		}))
	}

	if err := flow.MarkVerified(); err != nil {
		s.logger.Debug("verification flow transition rejected", "error", err)
	}
	dropFlow(channel, destination)
	return c.Redirect(s.config.GetLoginRoute() + "?message=" + url.QueryEscape("Account verified, please log in"))
}

// VerifyResend requests a fresh code, gated by the local cooldown.
func (s *Server) VerifyResend(c *fiber.Ctx) error {
	channel := c.FormValue("channel", "email")
	destination := c.FormValue("destination")
	flow := flowFor(channel, destination, s.config.GetResendCooldown())

	if err := flow.MarkCodeSent(); err != nil {
		return c.Render("verify", s.viewContext(fiber.Map{
			"channel":     channel,
			"destination": destination,
			"error":       "Please wait before requesting another code",
			"can_resend":  false,
			"retry_in":    int(flow.ResendAvailableIn().Seconds()),
		}))
	}

	var result *portal.ActionResult
	if channel == "sms" {
		result = s.auth.ResendSMSCode(c.UserContext(), destination)
	} else {
		result = s.auth.ResendEmailCode(c.UserContext(), destination)
	}

	return c.Render("verify", s.viewContext(fiber.Map{
		"channel":     channel,
		"destination": destination,
		"message":     result.Message,
		"can_resend":  false,
		"retry_in":    int(flow.ResendAvailableIn().Seconds()),
	}))
}

// Logout clears the session and navigates to login.
func (s *Server) Logout(c *fiber.Ctx) error {
	route := s.auth.Logout(c.UserContext())
	return c.Redirect(route)
}

// consumeRejectedRoute prefers the recorded pre-login destination over the
// role home, clearing the cookie either way.
func (s *Server) consumeRejectedRoute(c *fiber.Ctx, fallback string) string {
	key := s.config.GetRejectedRouteKey()
	if key == "" {
		return fallback
	}

	target := c.Cookies(key)
	c.ClearCookie(key)
	if target == "" || target == s.config.GetLoginRoute() {
		return fallback
	}
	return target
}
