package portal

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// KYC sections as the wizard tabs them.
const (
	KYCSectionPersonal  = "personal"
	KYCSectionAddress   = "address"
	KYCSectionIncome    = "income"
	KYCSectionBank      = "bank"
	KYCSectionDocuments = "documents"
)

var kycSections = []string{
	KYCSectionPersonal,
	KYCSectionAddress,
	KYCSectionIncome,
	KYCSectionBank,
	KYCSectionDocuments,
}

// Provinces and employment types offered by the wizard's select inputs.
var (
	Provinces = []string{
		"Eastern Cape", "Free State", "Gauteng", "KwaZulu-Natal", "Limpopo",
		"Mpumalanga", "North West", "Northern Cape", "Western Cape",
	}
	EmploymentTypes = []string{
		"Full-time", "Part-time", "Self-employed", "Contract",
		"Internship", "Unemployed", "Student",
	}
)

// ErrKYCNotEditable guards section saves once a submission leaves draft.
var ErrKYCNotEditable = goerrors.New("submission is no longer editable", goerrors.CategoryConflict).
	WithTextCode("KYC_NOT_EDITABLE").
	WithCode(goerrors.CodeConflict)

// KYCService drives the member's KYC draft lifecycle. Status transitions are
// strictly server-driven: the client only ever re-fetches after a submit,
// approve, or reject call.
type KYCService struct {
	client *Client
	logger Logger
}

// NewKYCService returns a KYCService over the shared client.
func NewKYCService(client *Client) *KYCService {
	return &KYCService{client: client, logger: defLogger{}}
}

// WithLogger overrides the default logger.
func (s *KYCService) WithLogger(logger Logger) *KYCService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Status fetches the submission state. An empty status reads as
// not_submitted.
func (s *KYCService) Status(ctx context.Context) (*KYCState, error) {
	var state KYCState
	if err := s.client.Get(ctx, "/api/kyc/status", &state); err != nil {
		return nil, err
	}
	if state.Status == "" {
		state.Status = KYCNotSubmitted
	}
	return &state, nil
}

// UpdateSection saves one wizard section into the draft. The current state
// must still be editable; pending/approved/rejected drafts are read-only.
func (s *KYCService) UpdateSection(ctx context.Context, state *KYCState, section string, data any) error {
	if state != nil && !state.Status.Editable() {
		return kycConflict(state.Status)
	}

	if !validSection(section) {
		return goerrors.New("unknown KYC section", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"section": section})
	}

	return s.client.Patch(ctx, "/api/kyc/update", map[string]any{section: data}, nil)
}

// Submit moves the draft to pending review. The caller re-fetches Status for
// the authoritative state afterwards.
func (s *KYCService) Submit(ctx context.Context) error {
	return s.client.Post(ctx, "/api/kyc/submit", nil, nil)
}

func validSection(section string) bool {
	for _, known := range kycSections {
		if section == known {
			return true
		}
	}
	return false
}

func kycConflict(status KYCStatus) error {
	clone := ErrKYCNotEditable.Clone()
	if clone == nil {
		return ErrKYCNotEditable
	}
	clone.Source = ErrKYCNotEditable
	return clone.WithMetadata(map[string]any{"status": string(status)})
}

// KYCPersonalPayload is the personal details section.
type KYCPersonalPayload struct {
	FirstName   string `json:"first_name" form:"first_name"`
	LastName    string `json:"last_name" form:"last_name"`
	IDNumber    string `json:"id_number" form:"id_number"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth"`
}

// Validate will validate the payload
func (p KYCPersonalPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.IDNumber, validation.Required, validation.Length(13, 13)),
		validation.Field(&p.DateOfBirth, validation.Required, validation.Date("2006-01-02")),
	)
}

// KYCAddressPayload is the address section.
type KYCAddressPayload struct {
	Street     string `json:"street" form:"street"`
	City       string `json:"city" form:"city"`
	Province   string `json:"province" form:"province"`
	PostalCode string `json:"postal_code" form:"postal_code"`
}

// Validate will validate the payload
func (p KYCAddressPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Street, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Province, validation.Required, validation.In(toAnySlice(Provinces)...)),
		validation.Field(&p.PostalCode, validation.Required, validation.Length(4, 4)),
	)
}

// KYCIncomePayload is the income section.
type KYCIncomePayload struct {
	EmploymentType string  `json:"employment_type" form:"employment_type"`
	EmployerName   string  `json:"employer_name" form:"employer_name"`
	MonthlyIncome  float64 `json:"monthly_income" form:"monthly_income"`
}

// Validate will validate the payload
func (p KYCIncomePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.EmploymentType, validation.Required, validation.In(toAnySlice(EmploymentTypes)...)),
		validation.Field(&p.MonthlyIncome, validation.Min(0.0)),
	)
}

// KYCBankPayload is the bank details section.
type KYCBankPayload struct {
	BankName      string `json:"bank_name" form:"bank_name"`
	AccountNumber string `json:"account_number" form:"account_number"`
	AccountType   string `json:"account_type" form:"account_type"`
	BranchCode    string `json:"branch_code" form:"branch_code"`
}

// Validate will validate the payload
func (p KYCBankPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BankName, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.AccountNumber, validation.Required, validation.Length(6, 20)),
		validation.Field(&p.AccountType, validation.Required),
		validation.Field(&p.BranchCode, validation.Required, validation.Length(6, 6)),
	)
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
