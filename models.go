package portal

import (
	"time"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleMember is a regular saver (member dashboard, own KYC, own wallet)
	RoleMember UserRole = "member"
	// RoleAdmin is a platform administrator (review queues, team management)
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole, defaulting to member.
func ParseRole(roleStr string) UserRole {
	if IsValidRole(roleStr) {
		return roleStr
	}
	return RoleMember
}

// User is the cached user record: a denormalized snapshot of the
// authenticated identity. Never authoritative for authorization beyond UI
// gating; the server re-checks role and verification on every call.
type User struct {
	ID             int64    `json:"id,omitempty"`
	Name           string   `json:"name,omitempty"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Role           UserRole `json:"role,omitempty"`
	IsVerified     bool     `json:"is_verified"`
	ProfilePicture string   `json:"profile_picture,omitempty"`
}

// Notification is created server-side and fetched by dashboard shells on a
// fixed-interval poll. Read state is eventually consistent with the server.
type Notification struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data,omitempty"`
}

// KYCStatus is server-driven; the client never advances it locally except by
// re-fetching after a submit/approve/reject call.
type KYCStatus string

const (
	KYCDraft        KYCStatus = "draft"
	KYCPending      KYCStatus = "pending"
	KYCApproved     KYCStatus = "approved"
	KYCRejected     KYCStatus = "rejected"
	KYCNotSubmitted KYCStatus = "not_submitted"
)

// Editable reports whether the KYC wizard renders edit affordances. Pending,
// approved and rejected submissions are strictly read-only.
func (s KYCStatus) Editable() bool {
	return s == KYCDraft || s == KYCNotSubmitted || s == ""
}

// KYCState is the member-facing view of a submission's lifecycle.
type KYCState struct {
	Status          KYCStatus  `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `json:"created_at,omitempty"`
}

// KYCSubmission is the admin review queue entry.
type KYCSubmission struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Status          KYCStatus  `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
}

// PermissionMatrix maps resource name -> action name -> allowed.
type PermissionMatrix map[string]map[string]bool

// HasAny reports whether at least one permission is granted. A role must
// grant something before the UI lets it be created.
func (m PermissionMatrix) HasAny() bool {
	for _, actions := range m {
		for _, allowed := range actions {
			if allowed {
				return true
			}
		}
	}
	return false
}

// PermissionResources and PermissionActions enumerate the matrix axes the
// role editor renders.
var (
	PermissionResources = []string{"users", "kyc", "financial", "groups", "reports"}
	PermissionActions   = []string{"view", "create", "edit", "delete", "approve"}
)

// NewPermissionMatrix returns a fully populated all-false matrix.
func NewPermissionMatrix() PermissionMatrix {
	m := make(PermissionMatrix, len(PermissionResources))
	for _, res := range PermissionResources {
		actions := make(map[string]bool, len(PermissionActions))
		for _, act := range PermissionActions {
			actions[act] = false
		}
		m[res] = actions
	}
	return m
}

// AdminRole is a named permission set. System roles are immutable and
// non-deletable from the UI.
type AdminRole struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Permissions  PermissionMatrix `json:"permissions"`
	IsSystemRole bool             `json:"is_system_role"`
	CreatedAt    *time.Time       `json:"created_at,omitempty"`
}

// TeamMember is an admin team roster entry.
type TeamMember struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// WithdrawalStatus is the payout request lifecycle.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest is a payout awaiting multi-approval review.
type WithdrawalRequest struct {
	ID                int64            `json:"id"`
	Amount            float64          `json:"amount"`
	Requester         string           `json:"requester"`
	GroupName         string           `json:"group"`
	Reason            string           `json:"reason,omitempty"`
	Status            WithdrawalStatus `json:"status"`
	ApprovalsReceived int              `json:"approvals_received"`
	ApprovalsNeeded   int              `json:"approvals_needed"`
	CreatedAt         *time.Time       `json:"created_at,omitempty"`
}

// Actionable reports whether approve/reject actions are exposed.
func (w WithdrawalRequest) Actionable() bool {
	return w.Status == WithdrawalPending
}

// AuditLog is an admin audit trail entry.
type AuditLog struct {
	ID           int64          `json:"id"`
	AdminName    string         `json:"admin_name"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AdminStats backs the admin dashboard headline cards.
type AdminStats struct {
	TotalMembers       int     `json:"total_members"`
	ActiveGroups       int     `json:"active_groups"`
	PendingKYC         int     `json:"pending_kyc"`
	PendingWithdrawals int     `json:"pending_withdrawals"`
	TotalContributions float64 `json:"total_contributions"`
}

// AnalyticsOverview backs the analytics/reporting view.
type AnalyticsOverview struct {
	MemberGrowth       []AnalyticsPoint `json:"member_growth,omitempty"`
	ContributionVolume []AnalyticsPoint `json:"contribution_volume,omitempty"`
	PayoutVolume       []AnalyticsPoint `json:"payout_volume,omitempty"`
	TopGroups          []GroupSummary   `json:"top_groups,omitempty"`
}

// AnalyticsPoint is one sample in a reporting series.
type AnalyticsPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// GroupSummary is a stokvel group as it appears in reporting views.
type GroupSummary struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Members int     `json:"members"`
	Balance float64 `json:"balance"`
}
