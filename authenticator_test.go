package portal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	portal "github.com/istokvel/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []string
	handlers map[string]http.HandlerFunc
	server   *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{handlers: map[string]http.HandlerFunc{}}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		handler := b.handlers[r.URL.Path]
		b.mu.Unlock()

		if handler == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) handle(path string, fn http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = fn
}

func (b *fakeBackend) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newAuthFixture(t *testing.T) (*portal.Authenticator, *portal.MemorySessionStore, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(t)
	store := portal.NewMemorySessionStore()
	session := portal.NewSessionManager(store)
	client := portal.NewClient(backend.server.URL, store)
	return portal.NewAuthenticator(client, session), store, backend
}

func TestAuthenticator_LoginSuccessStoresSessionAndRedirectsByRole(t *testing.T) {
	auth, store, backend := newAuthFixture(t)
	token := mintToken(t, time.Now().Add(time.Hour))

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "thandi@example.com", body["email"], "email must be trimmed")

		respondJSON(w, map[string]any{
			"access_token": token,
			"user": map[string]any{
				"id": 42, "full_name": "Thandi M", "email": "thandi@example.com",
				"role": "member", "is_verified": true,
				"profile_picture": "https://cdn.example.com/t.png",
			},
		})
	})

	result := auth.Login(context.Background(), "  thandi@example.com  ", "secret")

	require.True(t, result.Success)
	assert.Equal(t, "/dashboard", result.RedirectTo)
	assert.Equal(t, "Thandi M", result.User.Name)
	assert.Equal(t, "https://cdn.example.com/t.png", result.User.ProfilePicture)

	gotToken, user, ok := store.Session()
	require.True(t, ok)
	assert.Equal(t, token, gotToken)
	assert.Equal(t, int64(42), user.ID)
}

func TestAuthenticator_LoginAdminRedirect(t *testing.T) {
	auth, _, backend := newAuthFixture(t)

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"access_token": mintToken(t, time.Now().Add(time.Hour)),
			"user": map[string]any{
				"id": 1, "name": "Root", "role": "admin", "is_verified": true,
			},
		})
	})

	result := auth.Login(context.Background(), "root@example.com", "secret")
	require.True(t, result.Success)
	assert.Equal(t, "/admin/dashboard", result.RedirectTo)
}

func TestAuthenticator_TwoFactorChallengeDoesNotTouchStore(t *testing.T) {
	auth, store, backend := newAuthFixture(t)

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"two_factor_required": true,
			"user_id":             42,
			"message":             "Enter the code from your authenticator",
		})
	})

	result := auth.Login(context.Background(), "thandi@example.com", "secret")

	assert.False(t, result.Success)
	assert.True(t, result.TwoFactorRequired)
	assert.Equal(t, int64(42), result.PendingUserID)

	_, _, ok := store.Session()
	assert.False(t, ok, "2FA challenge must not write a session")
}

func TestAuthenticator_VerifyTwoFactorCompletesLogin(t *testing.T) {
	auth, store, backend := newAuthFixture(t)
	token := mintToken(t, time.Now().Add(time.Hour))

	backend.handle("/api/auth/verify-2fa-login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, float64(42), body["user_id"])
		assert.Equal(t, "123456", body["otp_code"], "code must be stripped of spaces")

		respondJSON(w, map[string]any{
			"access_token": token,
			"user": map[string]any{
				"id": 42, "full_name": "Thandi M", "role": "member", "is_verified": true,
			},
		})
	})

	result := auth.VerifyTwoFactorLogin(context.Background(), 42, " 123 456 ")
	require.True(t, result.Success)

	_, _, ok := store.Session()
	assert.True(t, ok)
}

func TestAuthenticator_LoginFailureSurfacesServerMessage(t *testing.T) {
	auth, store, backend := newAuthFixture(t)

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		respondJSON(w, map[string]any{"error": "Invalid email or password"})
	})

	result := auth.Login(context.Background(), "thandi@example.com", "wrong")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid email or password", result.Message)

	_, _, ok := store.Session()
	assert.False(t, ok)
}

func TestAuthenticator_LoginFailureFallbackMessage(t *testing.T) {
	auth, _, backend := newAuthFixture(t)

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result := auth.Login(context.Background(), "thandi@example.com", "pw")
	assert.False(t, result.Success)
	assert.Equal(t, "Login failed. Please check your credentials.", result.Message)
}

func TestAuthenticator_UserNameFallbacks(t *testing.T) {
	auth, _, backend := newAuthFixture(t)

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"access_token": mintToken(t, time.Now().Add(time.Hour)),
			"user": map[string]any{
				"id": 7, "name": "N Dlamini", "role": "member", "is_verified": true,
			},
		})
	})

	result := auth.Login(context.Background(), "n@example.com", "pw")
	require.True(t, result.Success)
	assert.Equal(t, "N Dlamini", result.User.Name, "name is used when full_name is absent")
}

func TestAuthenticator_LogoutClearsSessionEvenWhenAPIFails(t *testing.T) {
	auth, store, backend := newAuthFixture(t)
	require.NoError(t, store.SetSession(mintToken(t, time.Now().Add(time.Hour)), verifiedMember()))

	backend.handle("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	route := auth.Logout(context.Background())
	assert.Equal(t, "/login", route)

	_, _, ok := store.Session()
	assert.False(t, ok)
	assert.Contains(t, backend.calls(), "POST /api/auth/logout")
}

func TestAuthenticator_SignupNormalizesPhone(t *testing.T) {
	auth, _, backend := newAuthFixture(t)

	backend.handle("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "+27821234567", body["phone"])
		respondJSON(w, map[string]any{"user_id": 9, "message": "Check your email"})
	})

	result := auth.Signup(context.Background(), portal.SignupPayload{
		FullName: "Thandi M",
		Email:    "thandi@example.com",
		Phone:    "082 123 4567",
		Password: "secret123",
	})
	require.True(t, result.Success)
	assert.Equal(t, int64(9), result.UserID)
	assert.Equal(t, "Check your email", result.Message)
}

func TestAuthenticator_VerifyPhoneCodeMayCompleteLogin(t *testing.T) {
	auth, store, backend := newAuthFixture(t)
	token := mintToken(t, time.Now().Add(time.Hour))

	backend.handle("/api/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"access_token": token,
			"user": map[string]any{
				"id": 42, "full_name": "Thandi M", "role": "member", "is_verified": true,
			},
		})
	})

	result := auth.VerifyPhoneCode(context.Background(), "0821234567", "654321")
	require.True(t, result.Success)
	assert.Equal(t, "/dashboard", result.RedirectTo)

	_, _, ok := store.Session()
	assert.True(t, ok)
}

func TestAuthenticator_VerifyEmailCodeStripsSpaces(t *testing.T) {
	auth, _, backend := newAuthFixture(t)

	backend.handle("/api/verify-email", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "987654", body["verification_code"])
		respondJSON(w, map[string]any{"message": "Verified"})
	})

	result := auth.VerifyEmailCode(context.Background(), "thandi@example.com", "987 654")
	assert.True(t, result.Success)
	assert.Equal(t, "Verified", result.Message)
}

func TestAuthenticator_ActivitySinkReceivesEvents(t *testing.T) {
	backend := newFakeBackend(t)
	store := portal.NewMemorySessionStore()
	session := portal.NewSessionManager(store)
	client := portal.NewClient(backend.server.URL, store)

	var events []portal.ActivityEventType
	auth := portal.NewAuthenticator(client, session).
		WithActivitySink(portal.ActivitySinkFunc(func(ctx context.Context, event portal.ActivityEvent) error {
			events = append(events, event.EventType)
			return nil
		}))

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		respondJSON(w, map[string]any{"error": "nope"})
	})

	auth.Login(context.Background(), "thandi@example.com", "wrong")
	require.Len(t, events, 1)
	assert.Equal(t, portal.ActivityEventLoginFailure, events[0])
}

func TestAuthenticator_RequestPasswordResetNeverRevealsAccounts(t *testing.T) {
	auth, _, backend := newAuthFixture(t)

	backend.handle("/api/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		respondJSON(w, map[string]any{"error": "no such account"})
	})

	result := auth.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.True(t, result.Success)
	assert.NotContains(t, result.Message, "no such account")
	assert.Contains(t, backend.calls(), "POST /api/auth/forgot-password")

	// same message when the account exists
	backend.handle("/api/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{"ok": true})
	})
	existing := auth.RequestPasswordReset(context.Background(), "thandi@example.com")
	assert.Equal(t, result.Message, existing.Message)
}

func TestAuthenticator_ResetPasswordSuccessRedirectsToLogin(t *testing.T) {
	auth, store, backend := newAuthFixture(t)

	backend.handle("/api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "tok-reset", body["token"])
		respondJSON(w, map[string]any{"message": "Password updated"})
	})

	result := auth.ResetPassword(context.Background(), " tok-reset ", "newsecret1")
	require.True(t, result.Success)
	assert.Equal(t, "/login", result.RedirectTo)
	assert.Equal(t, "Password updated", result.Message)

	_, _, ok := store.Session()
	assert.False(t, ok, "a reset without a token response must not log in")
}

func TestAuthenticator_ResetPasswordExpiredToken(t *testing.T) {
	auth, _, backend := newAuthFixture(t)

	backend.handle("/api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		respondJSON(w, map[string]any{"error": "Reset link has expired"})
	})

	result := auth.ResetPassword(context.Background(), "stale", "newsecret1")
	assert.False(t, result.Success)
	assert.Equal(t, "Reset link has expired", result.Message)
}

func TestAuthenticator_FailingActivitySinkDoesNotBreakLogin(t *testing.T) {
	backend := newFakeBackend(t)
	store := portal.NewMemorySessionStore()
	session := portal.NewSessionManager(store)
	client := portal.NewClient(backend.server.URL, store)

	auth := portal.NewAuthenticator(client, session).
		WithActivitySink(portal.ActivitySinkFunc(func(ctx context.Context, event portal.ActivityEvent) error {
			return assert.AnError
		}))

	backend.handle("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"access_token": mintToken(t, time.Now().Add(time.Hour)),
			"user": map[string]any{
				"id": 42, "full_name": "Thandi M", "role": "member", "is_verified": true,
			},
		})
	})

	result := auth.Login(context.Background(), "thandi@example.com", "pw")
	require.True(t, result.Success, "sink failures are logged, never surfaced")
}

func TestAuthenticator_NormalizePhonePassthroughOnGarbage(t *testing.T) {
	auth, _, _ := newAuthFixture(t)
	assert.Equal(t, "not-a-phone", auth.NormalizePhone(" not-a-phone "))
	assert.Equal(t, "", auth.NormalizePhone("   "))
}
