package firebase

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
	"go.uber.org/fx"

	"github.com/csinmamit/membership/pkg/apperr"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
)

const issuerPrefix = "https://securetoken.google.com/"

// IdentityVerifier turns a bearer credential into a trusted subject id.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type Claims struct {
	jwt.StandardClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	AuthTime      int64  `json:"auth_time,omitempty"`
}

// Verifier validates Firebase ID tokens: RS256 signed by a Google key,
// issued for this project.
type Verifier struct {
	projectID string
	keys      KeySource
}

var _ IdentityVerifier = (*Verifier)(nil)

func NewVerifier(projectID string, keys KeySource) *Verifier {
	return &Verifier{projectID: projectID, keys: keys}
}

func NewVerifierFromConfig(cfg *cfgpkg.Config) *Verifier {
	return NewVerifier(cfg.Firebase.ProjectID, NewGoogleCertSource(cfg.Firebase.CertsURL, nil))
}

// Verify returns the token subject. Every failure wraps apperr.ErrUnauthenticated.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", fmt.Errorf("empty token: %w", apperr.ErrUnauthenticated)
	}
	if v.projectID == "" {
		return "", fmt.Errorf("identity project not configured: %w", apperr.ErrUnauthenticated)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodRS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid header")
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %v: %w", err, apperr.ErrUnauthenticated)
	}

	if !claims.VerifyAudience(v.projectID, true) {
		return "", fmt.Errorf("bad audience %q: %w", claims.Audience, apperr.ErrUnauthenticated)
	}
	if !claims.VerifyIssuer(issuerPrefix+v.projectID, true) {
		return "", fmt.Errorf("bad issuer %q: %w", claims.Issuer, apperr.ErrUnauthenticated)
	}
	if claims.Subject == "" || len(claims.Subject) > 128 {
		return "", fmt.Errorf("bad subject: %w", apperr.ErrUnauthenticated)
	}
	if claims.ExpiresAt == 0 || claims.IssuedAt == 0 {
		return "", fmt.Errorf("missing exp or iat: %w", apperr.ErrUnauthenticated)
	}
	return claims.Subject, nil
}

var Module = fx.Options(
	fx.Provide(
		NewVerifierFromConfig,
		func(v *Verifier) IdentityVerifier { return v },
	),
)
