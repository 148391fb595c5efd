package helper

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateJWT("secret", 60, userID)
	require.NoError(t, err)

	claims, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestParseJWTRejects(t *testing.T) {
	valid, err := GenerateJWT("secret", 60, uuid.New())
	require.NoError(t, err)

	expired, err := GenerateJWT("secret", -60, uuid.New())
	require.NoError(t, err)

	nilUser, err := GenerateJWT("secret", 60, uuid.Nil)
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	foreignToken, err := foreign.SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"Wrong secret", "other", valid},
		{"Expired", "secret", expired},
		{"Nil user", "secret", nilUser},
		{"Wrong issuer", "secret", foreignToken},
		{"Garbage", "secret", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWT(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}
