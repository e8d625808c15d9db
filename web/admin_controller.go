package web

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	portal "github.com/istokvel/go-portal"
)

// AdminDashboard renders the headline stats cards.
func (s *Server) AdminDashboard(c *fiber.Ctx) error {
	stats, err := s.admin.Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("admin/dashboard", s.viewContext(fiber.Map{
		"stats": stats,
	}))
}

// AdminKYCList renders the KYC review queue.
func (s *Server) AdminKYCList(c *fiber.Ctx) error {
	submissions, err := s.admin.KYCSubmissions(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("admin/kyc", s.viewContext(fiber.Map{
		"submissions": submissions,
	}))
}

// AdminKYCApprove approves a submission and returns to the queue.
func (s *Server) AdminKYCApprove(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := s.admin.ApproveKYC(c.UserContext(), id); err != nil {
		return err
	}
	return c.Redirect("/admin/kyc")
}

// AdminKYCReject rejects a submission with the form reason.
func (s *Server) AdminKYCReject(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := s.admin.RejectKYC(c.UserContext(), id, c.FormValue("reason")); err != nil {
		return err
	}
	return c.Redirect("/admin/kyc")
}

// AdminPayouts renders the withdrawal review queue.
func (s *Server) AdminPayouts(c *fiber.Ctx) error {
	withdrawals, err := s.admin.Withdrawals(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("admin/payouts", s.viewContext(fiber.Map{
		"withdrawals": withdrawals,
	}))
}

// AdminPayoutApprove approves a pending withdrawal.
func (s *Server) AdminPayoutApprove(c *fiber.Ctx) error {
	request, err := s.findWithdrawal(c)
	if err != nil {
		return err
	}
	if err := s.admin.ApproveWithdrawal(c.UserContext(), request); err != nil {
		return err
	}
	return c.Redirect("/admin/payouts")
}

// AdminPayoutReject rejects a pending withdrawal with the form reason.
func (s *Server) AdminPayoutReject(c *fiber.Ctx) error {
	request, err := s.findWithdrawal(c)
	if err != nil {
		return err
	}
	if err := s.admin.RejectWithdrawal(c.UserContext(), request, c.FormValue("reason")); err != nil {
		return err
	}
	return c.Redirect("/admin/payouts")
}

// findWithdrawal resolves the :id param against the current queue so the
// pending-only guard runs against the request's real status.
func (s *Server) findWithdrawal(c *fiber.Ctx) (portal.WithdrawalRequest, error) {
	id, err := paramID(c)
	if err != nil {
		return portal.WithdrawalRequest{}, err
	}

	withdrawals, err := s.admin.Withdrawals(c.UserContext())
	if err != nil {
		return portal.WithdrawalRequest{}, err
	}

	for _, w := range withdrawals {
		if w.ID == id {
			return w, nil
		}
	}
	return portal.WithdrawalRequest{}, fiber.ErrNotFound
}

// AdminTeam renders the team roster and role editor.
func (s *Server) AdminTeam(c *fiber.Ctx) error {
	members, err := s.admin.TeamMembers(c.UserContext())
	if err != nil {
		return err
	}
	roles, err := s.admin.Roles(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("admin/team", s.viewContext(fiber.Map{
		"members":   members,
		"roles":     roles,
		"resources": portal.PermissionResources,
		"actions":   portal.PermissionActions,
	}))
}

// AdminTeamCreate invites a new admin.
func (s *Server) AdminTeamCreate(c *fiber.Ctx) error {
	var payload portal.AdminInvitePayload
	if err := c.BodyParser(&payload); err != nil {
		return err
	}
	if err := s.admin.CreateAdmin(c.UserContext(), payload); err != nil {
		return s.renderTeamError(c, portal.MessageFromError(err, "Unable to create admin"))
	}
	return c.Redirect("/admin/team")
}

// AdminTeamRoleUpdate reassigns a member's role.
func (s *Server) AdminTeamRoleUpdate(c *fiber.Ctx) error {
	memberID, err := paramID(c)
	if err != nil {
		return err
	}
	roleID, _ := strconv.ParseInt(c.FormValue("role_id"), 10, 64)
	if err := s.admin.UpdateAdminRole(c.UserContext(), memberID, roleID); err != nil {
		return err
	}
	return c.Redirect("/admin/team")
}

// AdminRoleCreate creates a custom role from the editor form. Permissions
// arrive as perm_<resource>_<action> checkboxes.
func (s *Server) AdminRoleCreate(c *fiber.Ctx) error {
	form := roleFormFromRequest(c)
	if err := s.admin.CreateRole(c.UserContext(), form); err != nil {
		return s.renderTeamError(c, portal.MessageFromError(err, "Unable to create role"))
	}
	return c.Redirect("/admin/team")
}

// AdminRoleUpdate edits a custom role.
func (s *Server) AdminRoleUpdate(c *fiber.Ctx) error {
	role, err := s.findRole(c)
	if err != nil {
		return err
	}
	form := roleFormFromRequest(c)
	if err := s.admin.UpdateRole(c.UserContext(), role, form); err != nil {
		return s.renderTeamError(c, portal.MessageFromError(err, "Unable to update role"))
	}
	return c.Redirect("/admin/team")
}

// AdminRoleDelete removes a custom role.
func (s *Server) AdminRoleDelete(c *fiber.Ctx) error {
	role, err := s.findRole(c)
	if err != nil {
		return err
	}
	if err := s.admin.DeleteRole(c.UserContext(), role); err != nil {
		return s.renderTeamError(c, portal.MessageFromError(err, "Unable to delete role"))
	}
	return c.Redirect("/admin/team")
}

func (s *Server) findRole(c *fiber.Ctx) (portal.AdminRole, error) {
	id, err := paramID(c)
	if err != nil {
		return portal.AdminRole{}, err
	}

	roles, err := s.admin.Roles(c.UserContext())
	if err != nil {
		return portal.AdminRole{}, err
	}

	for _, r := range roles {
		if r.ID == id {
			return r, nil
		}
	}
	return portal.AdminRole{}, fiber.ErrNotFound
}

func (s *Server) renderTeamError(c *fiber.Ctx, message string) error {
	members, err := s.admin.TeamMembers(c.UserContext())
	if err != nil {
		return err
	}
	roles, err := s.admin.Roles(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("admin/team", s.viewContext(fiber.Map{
		"members":   members,
		"roles":     roles,
		"resources": portal.PermissionResources,
		"actions":   portal.PermissionActions,
		"error":     message,
	}))
}

// roleFormFromRequest reads the role editor form, building the permission
// matrix from perm_<resource>_<action> checkbox fields.
func roleFormFromRequest(c *fiber.Ctx) portal.RoleForm {
	matrix := portal.NewPermissionMatrix()
	for _, resource := range portal.PermissionResources {
		for _, action := range portal.PermissionActions {
			field := "perm_" + resource + "_" + action
			matrix[resource][action] = c.FormValue(field) == "on" || c.FormValue(field) == "true"
		}
	}

	return portal.RoleForm{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Permissions: matrix,
	}
}

// AdminAuditLogs renders the audit trail with optional filters.
func (s *Server) AdminAuditLogs(c *fiber.Ctx) error {
	adminID, _ := strconv.ParseInt(c.Query("admin_id"), 10, 64)
	page, _ := strconv.Atoi(c.Query("page"))

	logs, err := s.admin.AuditLogs(c.UserContext(), portal.AuditLogQuery{
		Action:  c.Query("action"),
		AdminID: adminID,
		Page:    page,
	})
	if err != nil {
		return err
	}

	return c.Render("admin/audit_logs", s.viewContext(fiber.Map{
		"logs":   logs,
		"action": c.Query("action"),
		"page":   page,
	}))
}

// AdminAnalytics renders the reporting view for the selected range.
func (s *Server) AdminAnalytics(c *fiber.Ctx) error {
	rangeKey := c.Query("range", "6m")
	overview, err := s.admin.AnalyticsOverview(c.UserContext(), rangeKey)
	if err != nil {
		return err
	}

	return c.Render("admin/analytics", s.viewContext(fiber.Map{
		"overview": overview,
		"range":    rangeKey,
	}))
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}
