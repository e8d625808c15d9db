package portal

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ProfileService fetches and updates the authoritative profile, refreshing
// the cached user record on every successful fetch.
type ProfileService struct {
	client *Client
	store  SessionStore
	logger Logger
}

// NewProfileService returns a ProfileService over the shared client + store.
func NewProfileService(client *Client, store SessionStore) *ProfileService {
	return &ProfileService{
		client: client,
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger overrides the default logger.
func (s *ProfileService) WithLogger(logger Logger) *ProfileService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Get fetches the authoritative profile and refreshes the cached user record
// alongside the existing token.
func (s *ProfileService) Get(ctx context.Context) (*User, error) {
	var wire wireUser
	if err := s.client.Get(ctx, "/api/user/profile", &wire); err != nil {
		return nil, err
	}

	user := wire.normalize()
	s.refreshCache(user)
	return user, nil
}

// ProfileUpdatePayload carries the editable profile fields.
type ProfileUpdatePayload struct {
	FullName string `json:"full_name" form:"full_name"`
	Phone    string `json:"phone" form:"phone"`
	Email    string `json:"email" form:"email"`
}

// Validate will validate the payload
func (p ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Phone, validation.Length(9, 15)),
	)
}

// Update writes profile changes and refreshes the cached user record.
func (s *ProfileService) Update(ctx context.Context, payload ProfileUpdatePayload) (*User, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var wire wireUser
	if err := s.client.Put(ctx, "/api/user/profile", payload, &wire); err != nil {
		return nil, err
	}

	user := wire.normalize()
	s.refreshCache(user)
	return user, nil
}

func (s *ProfileService) refreshCache(user *User) {
	token, _, ok := s.store.Session()
	if !ok || token == "" {
		return
	}
	if err := s.store.SetSession(token, user); err != nil {
		s.logger.Warn("unable to refresh cached user record", "error", err)
	}
}
