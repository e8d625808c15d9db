package portal

// SessionManager combines the token validator with the session store to
// answer the one question every guard asks: is there a usable authenticated
// session right now. Resolution is synchronous over local state; there is no
// network call in the gate path, so guards never flash a redirect while an
// async fetch resolves.
type SessionManager struct {
	store     SessionStore
	validator *TokenValidator
	logger    Logger
}

// SessionManagerOption customizes a SessionManager.
type SessionManagerOption func(*SessionManager)

// WithSessionLogger overrides the default logger.
func WithSessionLogger(logger Logger) SessionManagerOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSessionTokenValidator overrides the default validator.
func WithSessionTokenValidator(validator *TokenValidator) SessionManagerOption {
	return func(m *SessionManager) {
		if validator != nil {
			m.validator = validator
		}
	}
}

// NewSessionManager returns a SessionManager over the given store.
func NewSessionManager(store SessionStore, opts ...SessionManagerOption) *SessionManager {
	m := &SessionManager{
		store:     store,
		validator: NewTokenValidator(),
		logger:    defLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CurrentUser resolves the session and returns the cached user record. A
// malformed or expired token, or an absent/unverified user record, clears the
// store and reads as signed-out.
func (m *SessionManager) CurrentUser() (*User, bool) {
	token, user, ok := m.store.Session()
	if !ok || token == "" {
		return nil, false
	}

	if _, err := m.validator.Validate(token); err != nil {
		m.logger.Debug("session token rejected", "error", err)
		m.clear()
		return nil, false
	}

	if user == nil || !user.IsVerified {
		m.logger.Debug("session user missing or unverified, clearing storage")
		m.clear()
		return nil, false
	}

	return user, true
}

// IsAuthenticated reports whether a usable authenticated session exists.
func (m *SessionManager) IsAuthenticated() bool {
	_, ok := m.CurrentUser()
	return ok
}

// Role returns the session role, defaulting to member when signed out.
func (m *SessionManager) Role() UserRole {
	user, ok := m.CurrentUser()
	if !ok {
		return RoleMember
	}
	return ParseRole(user.Role)
}

// HasRole checks if the cached session carries a specific role.
func (m *SessionManager) HasRole(role UserRole) bool {
	user, ok := m.CurrentUser()
	return ok && user.Role == role
}

// RequireRole is the render gate: authenticated AND exact role match. It is
// a pure function of current storage state and must not be trusted as a
// security boundary; the backend re-authorizes every request.
func (m *SessionManager) RequireRole(role UserRole) bool {
	return m.HasRole(role)
}

// SetSession writes a new token + user pair, replacing any prior session.
func (m *SessionManager) SetSession(token string, user *User) error {
	return m.store.SetSession(token, user)
}

// Clear removes the token and cached user.
func (m *SessionManager) Clear() error {
	return m.store.Clear()
}

// Store exposes the underlying SessionStore for collaborators (API client,
// notification service) that share it.
func (m *SessionManager) Store() SessionStore {
	return m.store
}

func (m *SessionManager) clear() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("unable to clear session store", "error", err)
	}
}
