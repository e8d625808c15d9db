package portal_test

import (
	"context"
	"net/http"
	"testing"

	portal "github.com/istokvel/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kycFixture(t *testing.T) (*portal.KYCService, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(t)
	client := portal.NewClient(backend.server.URL, portal.NewMemorySessionStore())
	return portal.NewKYCService(client), backend
}

func TestKYCService_StatusDefaultsToNotSubmitted(t *testing.T) {
	service, backend := kycFixture(t)

	backend.handle("/api/kyc/status", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{})
	})

	state, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, portal.KYCNotSubmitted, state.Status)
	assert.True(t, state.Status.Editable())
}

func TestKYCService_UpdateSectionOnDraft(t *testing.T) {
	service, backend := kycFixture(t)

	backend.handle("/api/kyc/update", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		respondJSON(w, map[string]any{"ok": true})
	})

	state := &portal.KYCState{Status: portal.KYCDraft}
	err := service.UpdateSection(context.Background(), state, portal.KYCSectionPersonal, map[string]string{
		"first_name": "Thandi",
	})
	require.NoError(t, err)
}

func TestKYCService_UpdateSectionBlockedWhenNotEditable(t *testing.T) {
	service, backend := kycFixture(t)

	for _, status := range []portal.KYCStatus{portal.KYCPending, portal.KYCApproved, portal.KYCRejected} {
		state := &portal.KYCState{Status: status}
		err := service.UpdateSection(context.Background(), state, portal.KYCSectionPersonal, nil)
		assert.Error(t, err, string(status))
	}

	assert.Empty(t, backend.calls(), "read-only states must not hit the network")
}

func TestKYCService_UpdateSectionRejectsUnknownSection(t *testing.T) {
	service, backend := kycFixture(t)

	state := &portal.KYCState{Status: portal.KYCDraft}
	err := service.UpdateSection(context.Background(), state, "biometrics", nil)
	assert.Error(t, err)
	assert.Empty(t, backend.calls())
}

func TestKYCStatus_Editable(t *testing.T) {
	assert.True(t, portal.KYCDraft.Editable())
	assert.True(t, portal.KYCNotSubmitted.Editable())
	assert.False(t, portal.KYCPending.Editable())
	assert.False(t, portal.KYCApproved.Editable())
	assert.False(t, portal.KYCRejected.Editable())
}

func TestKYCPersonalPayload_Validate(t *testing.T) {
	valid := portal.KYCPersonalPayload{
		FirstName:   "Thandi",
		LastName:    "M",
		IDNumber:    "9001015009087",
		DateOfBirth: "1990-01-01",
	}
	assert.NoError(t, valid.Validate())

	shortID := valid
	shortID.IDNumber = "12345"
	assert.Error(t, shortID.Validate())

	badDate := valid
	badDate.DateOfBirth = "01/01/1990"
	assert.Error(t, badDate.Validate())
}

func TestKYCAddressPayload_ProvinceMustBeKnown(t *testing.T) {
	payload := portal.KYCAddressPayload{
		Street:     "12 Vilakazi St",
		City:       "Soweto",
		Province:   "Gauteng",
		PostalCode: "1804",
	}
	assert.NoError(t, payload.Validate())

	payload.Province = "Atlantis"
	assert.Error(t, payload.Validate())
}

func TestKYCIncomePayload_EmploymentTypeMustBeKnown(t *testing.T) {
	payload := portal.KYCIncomePayload{
		EmploymentType: "Full-time",
		MonthlyIncome:  12000,
	}
	assert.NoError(t, payload.Validate())

	payload.EmploymentType = "Freelancer"
	assert.Error(t, payload.Validate())
}

func TestKYCBankPayload_Validate(t *testing.T) {
	payload := portal.KYCBankPayload{
		BankName:      "Capitec",
		AccountNumber: "1234567890",
		AccountType:   "savings",
		BranchCode:    "470010",
	}
	assert.NoError(t, payload.Validate())

	payload.BranchCode = "47"
	assert.Error(t, payload.Validate())
}
