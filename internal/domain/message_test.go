package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleString(t *testing.T) {
	require.Equal(t, "user", RoleUser.String())
	require.Equal(t, "assistant", RoleAssistant.String())
	require.Equal(t, "Role(0)", Role(0).String())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("user")
	require.NoError(t, err)
	require.Equal(t, RoleUser, r)

	r, err = ParseRole("assistant")
	require.NoError(t, err)
	require.Equal(t, RoleAssistant, r)

	_, err = ParseRole("system")
	require.Error(t, err)
	require.False(t, Role(0).Valid())
}

func TestMessageConstructors(t *testing.T) {
	u := NewUserMessage("Full scan of liver")
	require.Equal(t, RoleUser, u.Role())
	require.Equal(t, "Full scan of liver", u.Content())

	a := NewAssistantMessage("ok")
	require.Equal(t, RoleAssistant, a.Role())
	require.True(t, a.Role().Valid())
}
