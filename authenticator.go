package portal

import (
	"context"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region hint for OTP phone normalization.
const DefaultPhoneRegion = "ZA"

const (
	defaultAdminHome  = "/admin/dashboard"
	defaultMemberHome = "/dashboard"
	loginRoute        = "/login"
)

// Authenticator performs the portal's auth actions. Every action is one HTTP
// call followed by a Token Store mutation and a normalized result; failures
// never escape as raw transport errors.
type Authenticator struct {
	client       *Client
	session      *SessionManager
	logger       Logger
	activitySink ActivitySink
	phoneRegion  string
	adminHome    string
	memberHome   string
}

// NewAuthenticator returns an Authenticator over the shared client + session.
func NewAuthenticator(client *Client, session *SessionManager) *Authenticator {
	return &Authenticator{
		client:       client,
		session:      session,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		phoneRegion:  DefaultPhoneRegion,
		adminHome:    defaultAdminHome,
		memberHome:   defaultMemberHome,
	}
}

// WithLogger overrides the default logger.
func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithActivitySink configures an ActivitySink for auth events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.activitySink = normalizeActivitySink(sink)
	return a
}

// WithHomeRoutes overrides the role-based post-login redirect targets.
func (a *Authenticator) WithHomeRoutes(adminHome, memberHome string) *Authenticator {
	if adminHome != "" {
		a.adminHome = adminHome
	}
	if memberHome != "" {
		a.memberHome = memberHome
	}
	return a
}

// WithPhoneRegion overrides the region used for phone normalization.
func (a *Authenticator) WithPhoneRegion(region string) *Authenticator {
	if region != "" {
		a.phoneRegion = region
	}
	return a
}

// wireUser is the user object as the backend returns it; Normalize maps it
// onto the cached user record (full_name fallback, member default role).
type wireUser struct {
	ID             int64  `json:"id"`
	FullName       string `json:"full_name"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	IsVerified     bool   `json:"is_verified"`
	ProfilePicture string `json:"profile_picture"`
}

func (w *wireUser) normalize() *User {
	if w == nil {
		return nil
	}

	name := w.FullName
	if name == "" {
		name = w.Name
	}
	if name == "" {
		name = "User"
	}

	return &User{
		ID:             w.ID,
		Name:           name,
		Email:          w.Email,
		Phone:          w.Phone,
		Role:           ParseRole(w.Role),
		IsVerified:     w.IsVerified,
		ProfilePicture: w.ProfilePicture,
	}
}

type authResponse struct {
	AccessToken       string    `json:"access_token"`
	TwoFactorRequired bool      `json:"two_factor_required"`
	UserID            int64     `json:"user_id"`
	Message           string    `json:"message"`
	User              *wireUser `json:"user"`
}

// LoginResult is the normalized outcome of login-shaped actions.
type LoginResult struct {
	Success           bool
	TwoFactorRequired bool
	PendingUserID     int64
	Message           string
	RedirectTo        string
	User              *User
}

// ActionResult is the normalized outcome of single-shot actions.
type ActionResult struct {
	Success bool
	Message string
}

// SignupResult is the normalized outcome of registration.
type SignupResult struct {
	Success bool
	Message string
	UserID  int64
}

// Login exchanges credentials for a session. A two_factor_required response
// returns the pending user id WITHOUT touching the Token Store; only a
// subsequent VerifyTwoFactorLogin may write it. A normal success stores the
// token + normalized user and picks the redirect target by role.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) *LoginResult {
	payload := map[string]string{
		"email":    strings.TrimSpace(identifier),
		"password": password,
	}

	var resp authResponse
	if err := a.client.Post(ctx, "/api/auth/login", payload, &resp); err != nil {
		a.logger.Error("Login error", "error", err)
		a.emit(ctx, ActivityEventLoginFailure, 0, identifier, map[string]any{"error": err.Error()})
		return &LoginResult{
			Message: MessageFromError(err, "Login failed. Please check your credentials."),
		}
	}

	if resp.TwoFactorRequired {
		a.emit(ctx, ActivityEventLoginChallenge, resp.UserID, identifier, nil)
		message := resp.Message
		if message == "" {
			message = "2FA required"
		}
		return &LoginResult{
			TwoFactorRequired: true,
			PendingUserID:     resp.UserID,
			Message:           message,
		}
	}

	return a.completeLogin(ctx, identifier, &resp)
}

// VerifyTwoFactorLogin completes a pending 2FA challenge.
func (a *Authenticator) VerifyTwoFactorLogin(ctx context.Context, pendingUserID int64, code string) *LoginResult {
	payload := map[string]any{
		"user_id":  pendingUserID,
		"otp_code": stripSpaces(code),
	}

	var resp authResponse
	if err := a.client.Post(ctx, "/api/auth/verify-2fa-login", payload, &resp); err != nil {
		a.logger.Error("2FA verification error", "error", err)
		a.emit(ctx, ActivityEventLoginFailure, pendingUserID, "", map[string]any{"error": err.Error(), "step": "2fa"})
		return &LoginResult{
			Message: MessageFromError(err, "Verification failed. Please try again."),
		}
	}

	return a.completeLogin(ctx, "", &resp)
}

func (a *Authenticator) completeLogin(ctx context.Context, identifier string, resp *authResponse) *LoginResult {
	user := resp.User.normalize()
	if resp.AccessToken == "" || user == nil {
		a.logger.Error("Login response missing token or user")
		a.emit(ctx, ActivityEventLoginFailure, 0, identifier, map[string]any{"error": "incomplete response"})
		return &LoginResult{Message: "Login failed. Please check your credentials."}
	}

	if err := a.session.SetSession(resp.AccessToken, user); err != nil {
		a.logger.Error("Unable to persist session", "error", err)
		return &LoginResult{Message: "Login failed. Please try again."}
	}

	a.emit(ctx, ActivityEventLoginSuccess, user.ID, identifier, nil)

	return &LoginResult{
		Success:    true,
		Message:    "Login successful",
		RedirectTo: a.redirectFor(user.Role),
		User:       user,
	}
}

func (a *Authenticator) redirectFor(role UserRole) string {
	if role == RoleAdmin {
		return a.adminHome
	}
	return a.memberHome
}

// SignupPayload carries the registration form fields.
type SignupPayload struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Signup registers a new account. Success hands off to the email/SMS
// verification flow; no session is established here.
func (a *Authenticator) Signup(ctx context.Context, payload SignupPayload) *SignupResult {
	payload.Phone = a.NormalizePhone(payload.Phone)

	var resp authResponse
	if err := a.client.Post(ctx, "/api/auth/register", payload, &resp); err != nil {
		a.logger.Error("Signup error", "error", err)
		a.emit(ctx, ActivityEventSignupFailure, 0, payload.Email, map[string]any{"error": err.Error()})
		return &SignupResult{
			Message: MessageFromError(err, "Signup failed. Please try again."),
		}
	}

	a.emit(ctx, ActivityEventSignupSuccess, resp.UserID, payload.Email, nil)

	message := resp.Message
	if message == "" {
		message = "Account created successfully"
	}
	return &SignupResult{Success: true, Message: message, UserID: resp.UserID}
}

// VerifyEmailCode submits an email OTP. Codes are stripped of whitespace
// before the call.
func (a *Authenticator) VerifyEmailCode(ctx context.Context, email, code string) *ActionResult {
	payload := map[string]string{
		"email":             email,
		"verification_code": stripSpaces(code),
	}

	var resp authResponse
	if err := a.client.Post(ctx, "/api/verify-email", payload, &resp); err != nil {
		a.logger.Error("Email verification error", "error", err)
		return &ActionResult{Message: MessageFromError(err, "Verification failed")}
	}

	a.emit(ctx, ActivityEventEmailVerified, 0, email, nil)

	message := resp.Message
	if message == "" {
		message = "Account verified successfully"
	}
	return &ActionResult{Success: true, Message: message}
}

// ResendEmailCode requests a fresh email OTP. The visible cooldown lives in
// VerificationFlow; the server enforces its own throttling regardless.
func (a *Authenticator) ResendEmailCode(ctx context.Context, email string) *ActionResult {
	var resp authResponse
	if err := a.client.Post(ctx, "/api/resend-verification", map[string]string{"email": email}, &resp); err != nil {
		return &ActionResult{Message: MessageFromError(err, "Failed to resend code")}
	}

	a.emit(ctx, ActivityEventCodeResent, 0, email, map[string]any{"channel": "email"})

	message := resp.Message
	if message == "" {
		message = "New verification code sent"
	}
	return &ActionResult{Success: true, Message: message}
}

// VerifyPhoneCode submits an SMS OTP. The backend may include a token + user
// for immediate login, in which case the session is established and the
// role-based redirect returned.
func (a *Authenticator) VerifyPhoneCode(ctx context.Context, phone, code string) *LoginResult {
	payload := map[string]string{
		"phone":    a.NormalizePhone(phone),
		"otp_code": stripSpaces(code),
	}

	var resp authResponse
	if err := a.client.Post(ctx, "/api/auth/verify", payload, &resp); err != nil {
		a.logger.Error("Phone verification error", "error", err)
		return &LoginResult{Message: MessageFromError(err, "Verification failed")}
	}

	a.emit(ctx, ActivityEventPhoneVerified, resp.UserID, phone, nil)

	if resp.AccessToken != "" && resp.User != nil {
		return a.completeLogin(ctx, phone, &resp)
	}

	message := resp.Message
	if message == "" {
		message = "Account verified successfully"
	}
	return &LoginResult{Success: true, Message: message, RedirectTo: loginRoute}
}

// ResendSMSCode requests a fresh SMS OTP.
func (a *Authenticator) ResendSMSCode(ctx context.Context, phone string) *ActionResult {
	payload := map[string]string{"phone": a.NormalizePhone(phone)}

	var resp authResponse
	if err := a.client.Post(ctx, "/api/auth/resend-sms", payload, &resp); err != nil {
		return &ActionResult{Message: MessageFromError(err, "Failed to resend code")}
	}

	a.emit(ctx, ActivityEventCodeResent, 0, phone, map[string]any{"channel": "sms"})

	message := resp.Message
	if message == "" {
		message = "New verification code sent"
	}
	return &ActionResult{Success: true, Message: message}
}

// SendSMSCode triggers the initial SMS OTP delivery.
func (a *Authenticator) SendSMSCode(ctx context.Context, phone string) *ActionResult {
	payload := map[string]string{"phone": a.NormalizePhone(phone)}

	var resp authResponse
	if err := a.client.Post(ctx, "/api/auth/send-otp", payload, &resp); err != nil {
		return &ActionResult{Message: MessageFromError(err, "Failed to send code")}
	}

	message := resp.Message
	if message == "" {
		message = "Verification code sent"
	}
	return &ActionResult{Success: true, Message: message}
}

// RequestPasswordReset starts the forgot-password flow. The result message is
// deliberately the same whether or not the account exists, so the form cannot
// be used to enumerate emails; API failures are logged, not surfaced.
func (a *Authenticator) RequestPasswordReset(ctx context.Context, email string) *ActionResult {
	payload := map[string]string{"email": strings.TrimSpace(email)}

	if err := a.client.Post(ctx, "/api/auth/forgot-password", payload, nil); err != nil {
		a.logger.Warn("Password reset request error", "error", err)
	}

	a.emit(ctx, ActivityEventResetRequested, 0, email, nil)

	return &ActionResult{
		Success: true,
		Message: "If an account with that email exists, a password reset link has been sent.",
	}
}

// ResetPassword finalizes a reset using the token from the emailed link.
func (a *Authenticator) ResetPassword(ctx context.Context, token, newPassword string) *LoginResult {
	payload := map[string]string{
		"token":    strings.TrimSpace(token),
		"password": newPassword,
	}

	var resp authResponse
	if err := a.client.Post(ctx, "/api/auth/reset-password", payload, &resp); err != nil {
		a.logger.Error("Password reset error", "error", err)
		return &LoginResult{
			Message: MessageFromError(err, "Password reset failed. The link may have expired."),
		}
	}

	a.emit(ctx, ActivityEventResetCompleted, resp.UserID, "", nil)

	if resp.AccessToken != "" && resp.User != nil {
		return a.completeLogin(ctx, "", &resp)
	}

	message := resp.Message
	if message == "" {
		message = "Password updated. Please log in."
	}
	return &LoginResult{Success: true, Message: message, RedirectTo: loginRoute}
}

// Logout clears the session first, then fires a best-effort server-side
// logout; a failed call is logged and swallowed, never blocking the local
// clear. Returns the login route the caller must navigate to.
func (a *Authenticator) Logout(ctx context.Context) string {
	user, _ := a.session.CurrentUser()

	if err := a.session.Clear(); err != nil {
		a.logger.Warn("Unable to clear session on logout", "error", err)
	}

	if err := a.client.Post(ctx, "/api/auth/logout", nil, nil); err != nil {
		a.logger.Warn("Logout API call failed", "error", err)
	}

	var userID int64
	if user != nil {
		userID = user.ID
	}
	a.emit(ctx, ActivityEventLogout, userID, "", nil)

	return loginRoute
}

// NormalizePhone formats a phone number as E.164 using the configured region.
// Unparseable input is passed through trimmed; the server validates anyway.
func (a *Authenticator) NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return trimmed
	}

	parsed, err := phonenumbers.Parse(trimmed, a.phoneRegion)
	if err != nil {
		return trimmed
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func (a *Authenticator) emit(ctx context.Context, eventType ActivityEventType, userID int64, identifier string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Identifier: identifier,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := a.activitySink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error", "error", err)
	}
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
