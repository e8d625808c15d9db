package portal_test

import (
	"testing"
	"time"

	portal "github.com/istokvel/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateHelpers_SignedOut(t *testing.T) {
	session := portal.NewSessionManager(portal.NewMemorySessionStore())

	helpers := portal.TemplateHelpers(session)
	assert.Equal(t, false, helpers["is_authenticated"])
	assert.Equal(t, false, helpers["is_admin"])
	assert.NotContains(t, helpers, "current_user")
}

func TestTemplateHelpers_AdminSession(t *testing.T) {
	store := portal.NewMemorySessionStore()
	session := portal.NewSessionManager(store)

	user := verifiedMember()
	user.Role = portal.RoleAdmin
	require.NoError(t, store.SetSession(mintToken(t, time.Now().Add(time.Hour)), user))

	helpers := portal.TemplateHelpers(session)
	assert.Equal(t, true, helpers["is_authenticated"])
	assert.Equal(t, true, helpers["is_admin"])
	assert.Equal(t, user, helpers["current_user"])
}
