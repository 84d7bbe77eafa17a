package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"personafit/internal/config"
	domain "personafit/internal/domain/user"
	jwtsvc "personafit/pkg/jwt"
)

func newTestService() jwtsvc.Service {
	return jwtsvc.NewService(&config.JWTConfig{
		Issuer:        "personafit-test",
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func testUser() *domain.User {
	u := domain.NewUser("alice@example.com", "hash", "alice")
	u.IsEmailVerified = true
	return u
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTestService()
	u := testUser()

	token, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, u.ID.String(), claims.UserID)
	require.Equal(t, u.Email, claims.Email)
	require.Equal(t, string(u.Role), claims.Role)
	require.True(t, claims.EmailVerified)
	require.Equal(t, "personafit-test", claims.Issuer)
}

func TestRefreshToken_RoundTripWithJTI(t *testing.T) {
	svc := newTestService()
	u := testUser()

	token, jti, err := svc.GenerateRefreshToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := svc.ParseRefreshToken(token)
	require.NoError(t, err)
	require.Equal(t, u.ID.String(), claims.UserID)
	require.Equal(t, jti, claims.ID)
}

func TestTokens_NotInterchangeable(t *testing.T) {
	svc := newTestService()
	u := testUser()

	access, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)

	// Access-токен подписан другим секретом и не проходит как refresh.
	_, err = svc.ParseRefreshToken(access)
	require.Error(t, err)
}

func TestParseAccessToken_WrongIssuer(t *testing.T) {
	other := jwtsvc.NewService(&config.JWTConfig{
		Issuer:        "someone-else",
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})

	token, err := other.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = newTestService().ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseAccessToken_Garbage(t *testing.T) {
	_, err := newTestService().ParseAccessToken("not-a-token")
	require.Error(t, err)
}
