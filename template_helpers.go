package portal

// TemplateHelpers returns the view bindings every rendered page gets: the
// cached user record and the gating flags derived from it. Values resolve at
// render time against current storage state.
func TemplateHelpers(session *SessionManager) map[string]any {
	user, ok := session.CurrentUser()

	helpers := map[string]any{
		"is_authenticated": ok,
		"is_admin":         ok && user.Role == RoleAdmin,
		"roles": map[string]UserRole{
			"member": RoleMember,
			"admin":  RoleAdmin,
		},
	}

	if ok {
		helpers["current_user"] = user
	}

	return helpers
}
