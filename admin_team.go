package portal

import (
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// TeamMembers lists the admin roster.
func (s *AdminService) TeamMembers(ctx context.Context) ([]TeamMember, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/api/admin/team", &raw); err != nil {
		return nil, err
	}

	var items []TeamMember
	if err := decodeWrappedList(raw, "members", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AdminInvitePayload creates a new admin account.
type AdminInvitePayload struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	RoleID   int64  `json:"role_id" form:"role_id"`
}

// Validate will validate the payload
func (p AdminInvitePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.RoleID, validation.Required),
	)
}

// CreateAdmin invites a new admin onto the team.
func (s *AdminService) CreateAdmin(ctx context.Context, payload AdminInvitePayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	return s.client.Post(ctx, "/api/admin/team", payload, nil)
}

// UpdateAdminRole reassigns a team member's role.
func (s *AdminService) UpdateAdminRole(ctx context.Context, memberID, roleID int64) error {
	payload := map[string]int64{"role_id": roleID}
	return s.client.Put(ctx, fmt.Sprintf("/api/admin/team/%d/role", memberID), payload, nil)
}

// Roles lists the configured admin roles.
func (s *AdminService) Roles(ctx context.Context) ([]AdminRole, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/api/admin/roles", &raw); err != nil {
		return nil, err
	}

	var items []AdminRole
	if err := decodeWrappedList(raw, "roles", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RoleForm is the role editor payload. A role must grant at least one
// permission before the form submits; the check runs before any network call.
type RoleForm struct {
	Name        string           `json:"name" form:"name"`
	Description string           `json:"description" form:"description"`
	Permissions PermissionMatrix `json:"permissions"`
}

// Validate will validate the payload
func (f RoleForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&f.Description, validation.Length(0, 500)),
		validation.Field(&f.Permissions, validation.By(requireAnyPermission)),
	)
}

func requireAnyPermission(value any) error {
	matrix, ok := value.(PermissionMatrix)
	if !ok || !matrix.HasAny() {
		return goerrors.New("role must grant at least one permission", goerrors.CategoryValidation).
			WithTextCode("ROLE_NO_PERMISSIONS").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// CreateRole creates a custom role.
func (s *AdminService) CreateRole(ctx context.Context, form RoleForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	return s.client.Post(ctx, "/api/admin/roles", form, nil)
}

// UpdateRole edits a custom role. System roles are immutable.
func (s *AdminService) UpdateRole(ctx context.Context, role AdminRole, form RoleForm) error {
	if role.IsSystemRole {
		return systemRoleConflict(role)
	}
	if err := form.Validate(); err != nil {
		return err
	}
	return s.client.Put(ctx, fmt.Sprintf("/api/admin/roles/%d", role.ID), form, nil)
}

// DeleteRole removes a custom role. System roles are non-deletable.
func (s *AdminService) DeleteRole(ctx context.Context, role AdminRole) error {
	if role.IsSystemRole {
		return systemRoleConflict(role)
	}
	return s.client.Delete(ctx, fmt.Sprintf("/api/admin/roles/%d", role.ID))
}

func systemRoleConflict(role AdminRole) error {
	clone := ErrSystemRoleImmutable.Clone()
	if clone == nil {
		return ErrSystemRoleImmutable
	}
	clone.Source = ErrSystemRoleImmutable
	return clone.WithMetadata(map[string]any{
		"role_id": role.ID,
		"role":    role.Name,
	})
}
