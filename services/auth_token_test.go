package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tavrezsi/tavrezsi-api/models"
)

func TestTokenIssuer_Issue(t *testing.T) {
	issuer := NewTokenIssuer("issuer-secret", "tavrezsi-test", "tavrezsi-test-api", 2*time.Hour)
	issuer.now = func() time.Time { return time.Now().Truncate(time.Second) }

	signed, expiresAt, err := issuer.Issue(&models.User{ID: 12, Role: models.RoleOwner})
	require.NoError(t, err)

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("issuer-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("tavrezsi-test"),
		jwt.WithAudience("tavrezsi-test-api"))
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "12", claims.Subject)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.True(t, expiresAt.Equal(claims.ExpiresAt.Time))

	_, err = jwt.ParseWithClaims(signed, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}
