package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// AdminService covers the admin review surfaces: KYC submissions, payout
// requests, audit logs, stats, and analytics. Approval thresholds and every
// real decision live on the backend; this layer only guards what the UI may
// offer.
type AdminService struct {
	client *Client
	logger Logger
}

// NewAdminService returns an AdminService over the shared client.
func NewAdminService(client *Client) *AdminService {
	return &AdminService{client: client, logger: defLogger{}}
}

// WithLogger overrides the default logger.
func (s *AdminService) WithLogger(logger Logger) *AdminService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// KYCSubmissions lists the review queue.
func (s *AdminService) KYCSubmissions(ctx context.Context) ([]KYCSubmission, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/api/admin/kyc/submissions", &raw); err != nil {
		return nil, err
	}

	var items []KYCSubmission
	if err := decodeWrappedList(raw, "submissions", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ApproveKYC approves a pending submission.
func (s *AdminService) ApproveKYC(ctx context.Context, id int64) error {
	return s.client.Post(ctx, fmt.Sprintf("/api/admin/kyc/submissions/%d/approve", id), nil, nil)
}

// RejectKYC rejects a pending submission with a reason.
func (s *AdminService) RejectKYC(ctx context.Context, id int64, reason string) error {
	if err := validation.Validate(reason, validation.Required, validation.Length(3, 500)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "rejection reason is required").
			WithCode(goerrors.CodeBadRequest)
	}
	payload := map[string]string{"reason": reason}
	return s.client.Post(ctx, fmt.Sprintf("/api/admin/kyc/submissions/%d/reject", id), payload, nil)
}

// Withdrawals lists payout requests for review.
func (s *AdminService) Withdrawals(ctx context.Context) ([]WithdrawalRequest, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/api/admin/withdrawals", &raw); err != nil {
		return nil, err
	}

	var items []WithdrawalRequest
	if err := decodeWrappedList(raw, "withdrawals", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ApproveWithdrawal approves a payout request. Only pending requests expose
// the action; anything else fails before any network call.
func (s *AdminService) ApproveWithdrawal(ctx context.Context, request WithdrawalRequest) error {
	if !request.Actionable() {
		return withdrawalConflict(request)
	}
	return s.client.Post(ctx, fmt.Sprintf("/api/admin/withdrawals/%d/approve", request.ID), nil, nil)
}

// RejectWithdrawal rejects a payout request with a reason.
func (s *AdminService) RejectWithdrawal(ctx context.Context, request WithdrawalRequest, reason string) error {
	if !request.Actionable() {
		return withdrawalConflict(request)
	}
	if err := validation.Validate(reason, validation.Required, validation.Length(3, 500)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "rejection reason is required").
			WithCode(goerrors.CodeBadRequest)
	}
	payload := map[string]string{"reason": reason}
	return s.client.Post(ctx, fmt.Sprintf("/api/admin/withdrawals/%d/reject", request.ID), payload, nil)
}

func withdrawalConflict(request WithdrawalRequest) error {
	clone := ErrNotPending.Clone()
	if clone == nil {
		return ErrNotPending
	}
	clone.Source = ErrNotPending
	return clone.WithMetadata(map[string]any{
		"withdrawal_id": request.ID,
		"status":        string(request.Status),
	})
}

// AuditLogQuery filters the audit trail listing.
type AuditLogQuery struct {
	Action  string
	AdminID int64
	Page    int
	PerPage int
}

func (q AuditLogQuery) values() url.Values {
	values := url.Values{}
	if q.Action != "" {
		values.Set("action", q.Action)
	}
	if q.AdminID > 0 {
		values.Set("admin_id", strconv.FormatInt(q.AdminID, 10))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return values
}

// AuditLogs lists the admin audit trail.
func (s *AdminService) AuditLogs(ctx context.Context, query AuditLogQuery) ([]AuditLog, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, joinQuery("/api/admin/audit-logs", query.values()), &raw); err != nil {
		return nil, err
	}

	var items []AuditLog
	if err := decodeWrappedList(raw, "logs", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Stats fetches the admin dashboard headline numbers.
func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := s.client.Get(ctx, "/api/admin/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AnalyticsOverview fetches the reporting series for the analytics view.
func (s *AdminService) AnalyticsOverview(ctx context.Context, rangeKey string) (*AnalyticsOverview, error) {
	values := url.Values{}
	if rangeKey != "" {
		values.Set("range", rangeKey)
	}

	var overview AnalyticsOverview
	if err := s.client.Get(ctx, joinQuery("/api/admin/analytics/overview", values), &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// decodeWrappedList absorbs both list response shapes the backend uses: a
// bare array or an object wrapping the array under key.
func decodeWrappedList(raw json.RawMessage, key string, out any) error {
	if leadingByte(raw) == '[' {
		return json.Unmarshal(raw, out)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return err
	}

	inner, ok := wrapper[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(inner, out)
}
