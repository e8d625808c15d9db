package portal_test

import (
	"testing"
	"time"

	portal "github.com/istokvel/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifiedMember() *portal.User {
	return &portal.User{
		ID:         42,
		Name:       "Thandi M",
		Email:      "thandi@example.com",
		Role:       portal.RoleMember,
		IsVerified: true,
	}
}

func TestSessionManager_CurrentUser(t *testing.T) {
	store := portal.NewMemorySessionStore()
	manager := portal.NewSessionManager(store)

	require.NoError(t, store.SetSession(mintToken(t, time.Now().Add(time.Hour)), verifiedMember()))

	user, ok := manager.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, int64(42), user.ID)
	assert.True(t, manager.IsAuthenticated())
}

func TestSessionManager_NoSession(t *testing.T) {
	manager := portal.NewSessionManager(portal.NewMemorySessionStore())

	user, ok := manager.CurrentUser()
	assert.Nil(t, user)
	assert.False(t, ok)
	assert.False(t, manager.IsAuthenticated())
}

func TestSessionManager_ExpiredTokenClearsStore(t *testing.T) {
	store := portal.NewMemorySessionStore()
	manager := portal.NewSessionManager(store)

	require.NoError(t, store.SetSession(mintToken(t, time.Now().Add(-time.Hour)), verifiedMember()))

	assert.False(t, manager.IsAuthenticated())

	// the garbage session must not linger
	token, user, ok := store.Session()
	assert.Empty(t, token)
	assert.Nil(t, user)
	assert.False(t, ok)
}

func TestSessionManager_MalformedTokenClearsStore(t *testing.T) {
	store := portal.NewMemorySessionStore()
	manager := portal.NewSessionManager(store)

	require.NoError(t, store.SetSession("not-a-token", verifiedMember()))

	assert.False(t, manager.IsAuthenticated())
	_, _, ok := store.Session()
	assert.False(t, ok)
}

func TestSessionManager_UnverifiedUserReadsAsSignedOut(t *testing.T) {
	store := portal.NewMemorySessionStore()
	manager := portal.NewSessionManager(store)

	user := verifiedMember()
	user.IsVerified = false
	require.NoError(t, store.SetSession(mintToken(t, time.Now().Add(time.Hour)), user))

	assert.False(t, manager.IsAuthenticated())
	_, _, ok := store.Session()
	assert.False(t, ok)
}

func TestSessionManager_MissingUserRecordClearsStore(t *testing.T) {
	store := portal.NewMemorySessionStore()
	manager := portal.NewSessionManager(store)

	require.NoError(t, store.SetSession(mintToken(t, time.Now().Add(time.Hour)), nil))

	assert.False(t, manager.IsAuthenticated())
	_, _, ok := store.Session()
	assert.False(t, ok)
}

func TestSessionManager_RequireRole(t *testing.T) {
	store := portal.NewMemorySessionStore()
	manager := portal.NewSessionManager(store)

	user := verifiedMember()
	user.Role = portal.RoleAdmin
	require.NoError(t, store.SetSession(mintToken(t, time.Now().Add(time.Hour)), user))

	assert.True(t, manager.RequireRole(portal.RoleAdmin))
	assert.False(t, manager.RequireRole(portal.RoleMember))
	assert.Equal(t, portal.RoleAdmin, manager.Role())
}

func TestSessionManager_RoleDefaultsToMemberWhenSignedOut(t *testing.T) {
	manager := portal.NewSessionManager(portal.NewMemorySessionStore())
	assert.Equal(t, portal.RoleMember, manager.Role())
	assert.False(t, manager.RequireRole(portal.RoleAdmin))
}
