package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticator turns a raw bearer token into the calling user.
// Implementations fail with an error for missing/invalid/expired
// credentials; the middleware maps any failure to 401.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*User, error)
}

// OIDCAuthenticator verifies session tokens against the identity provider's
// OIDC issuer (its JWKS), then resolves the full profile via the Provider.
type OIDCAuthenticator struct {
	verifier *oidc.IDTokenVerifier
	users    Provider
}

// NewOIDCAuthenticator discovers the issuer and prepares a verifier.
// clientID may be empty; provider session tokens carry an "azp" rather than
// a conventional audience, so audience checking is skipped.
func NewOIDCAuthenticator(ctx context.Context, issuer string, users Provider) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	return &OIDCAuthenticator{verifier: verifier, users: users}, nil
}

func (a *OIDCAuthenticator) Authenticate(ctx context.Context, rawToken string) (*User, error) {
	idToken, err := a.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	if claims.Sub == "" {
		return nil, errors.New("token has no subject")
	}
	return a.users.GetUser(ctx, claims.Sub)
}

// DevAuthenticator verifies HS256 tokens signed with a shared secret.
// Used in local development and integration tests where no identity
// provider is reachable; the user profile is taken from the claims.
type DevAuthenticator struct {
	secret []byte
}

func NewDevAuthenticator(secret string) *DevAuthenticator {
	return &DevAuthenticator{secret: []byte(secret)}
}

func (a *DevAuthenticator) Authenticate(ctx context.Context, rawToken string) (*User, error) {
	tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return userFromClaims(claims)
}

// InsecureAuthenticator parses the token payload without any signature
// verification. Only for integration tests under explicit opt-in via the
// ALLOW_INSECURE_TOKEN env var.
type InsecureAuthenticator struct{}

func NewInsecureAuthenticator() *InsecureAuthenticator { return &InsecureAuthenticator{} }

func (a *InsecureAuthenticator) Authenticate(ctx context.Context, rawToken string) (*User, error) {
	parts := strings.Split(rawToken, ".")
	if len(parts) < 2 {
		return nil, errors.New("invalid token format")
	}
	payload := parts[1]
	if m := len(payload) % 4; m != 0 {
		payload += strings.Repeat("=", 4-m)
	}
	data, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, err
	}
	return userFromClaims(claims)
}

func userFromClaims(claims map[string]interface{}) (*User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token has no subject")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	avatar, _ := claims["avatar"].(string)
	return &User{
		ID:     sub,
		Email:  email,
		Name:   name,
		Avatar: avatar,
		Color:  ColorFor(sub),
	}, nil
}
