package identity

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevAuthenticator(t *testing.T) {
	secret := "test-secret"
	auth := NewDevAuthenticator(secret)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user_1",
		"email": "alice@example.com",
		"name":  "Alice",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	u, err := auth.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user_1", u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, ColorFor("user_1"), u.Color)
}

func TestDevAuthenticatorRejectsWrongSecret(t *testing.T) {
	auth := NewDevAuthenticator("right")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user_1"})
	raw, err := tok.SignedString([]byte("wrong"))
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), raw)
	assert.Error(t, err)
}

func TestDevAuthenticatorRejectsExpired(t *testing.T) {
	secret := "test-secret"
	auth := NewDevAuthenticator(secret)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), raw)
	assert.Error(t, err)
}

func insecureToken(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(payload)) + ".sig"
}

func TestInsecureAuthenticator(t *testing.T) {
	auth := NewInsecureAuthenticator()

	u, err := auth.Authenticate(context.Background(), insecureToken(t, `{"sub":"user_2","name":"Bob"}`))
	require.NoError(t, err)
	assert.Equal(t, "user_2", u.ID)
	assert.Equal(t, "Bob", u.Name)
}

func TestInsecureAuthenticatorRejectsGarbage(t *testing.T) {
	auth := NewInsecureAuthenticator()

	_, err := auth.Authenticate(context.Background(), "notatoken")
	assert.Error(t, err)

	_, err = auth.Authenticate(context.Background(), insecureToken(t, `{"email":"nosub@example.com"}`))
	assert.Error(t, err)
}
