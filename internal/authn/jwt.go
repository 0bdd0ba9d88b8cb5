package authn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dserrors "github.com/systmms/secretree/internal/errors"
	"github.com/systmms/secretree/internal/hierarchy"
	"github.com/systmms/secretree/internal/logging"
	"github.com/systmms/secretree/internal/metrics"
	"github.com/systmms/secretree/internal/vault"
)

// TokenSpec configures the self-issued token contents.
type TokenSpec struct {
	// Audience is the aud claim.
	Audience string

	// Issuer is the iss claim: this host's externally reachable identity.
	Issuer string

	// SubjectClaims names the identity claims whose values compose the
	// sub claim, in order. Defaults to the caller's full path claim.
	SubjectClaims []string

	// SubjectSeparator joins the subject components. Defaults to "-".
	SubjectSeparator string

	// TTL bounds the token validity window. Defaults to 2 minutes.
	TTL time.Duration
}

func (s TokenSpec) withDefaults() TokenSpec {
	if len(s.SubjectClaims) == 0 {
		s.SubjectClaims = []string{"jenkins_full_name"}
	}
	if s.SubjectSeparator == "" {
		s.SubjectSeparator = "-"
	}
	if s.TTL == 0 {
		s.TTL = 2 * time.Minute
	}
	return s
}

// JWTAuthenticator implements the self-issued-token strategy: it signs a
// short-lived token describing the caller context and exchanges it at
// the vault's token-authentication endpoint.
type JWTAuthenticator struct {
	signer *Signer
	client *vault.Client
	spec   TokenSpec
	logger *logging.Logger

	now func() time.Time
}

// NewJWTAuthenticator creates the self-issued-token strategy.
func NewJWTAuthenticator(signer *Signer, client *vault.Client, spec TokenSpec, logger *logging.Logger) *JWTAuthenticator {
	return &JWTAuthenticator{
		signer: signer,
		client: client,
		spec:   spec.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// Name implements Authenticator.
func (a *JWTAuthenticator) Name() string { return "jwt" }

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, ac Context) ([]byte, error) {
	signed, err := a.IssueToken(ac.Node)
	if err != nil {
		metrics.RecordAuthnAttempt(a.Name(), "error")
		return nil, err
	}

	token, err := a.client.AuthenticateJWT(ctx, ac.Config, []byte(signed))
	if err != nil {
		if dserrors.IsAuthn(err) {
			metrics.RecordAuthnAttempt(a.Name(), "denied")
		} else {
			metrics.RecordAuthnAttempt(a.Name(), "error")
		}
		return nil, err
	}

	metrics.RecordAuthnAttempt(a.Name(), "success")
	return token, nil
}

// IssueToken builds and signs the self-issued token for a caller node.
func (a *JWTAuthenticator) IssueToken(node hierarchy.Node) (string, error) {
	now := a.now()
	expiry := now.Add(a.spec.TTL)

	key, err := a.signer.SelectKey(expiry)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"jti": uuid.NewString(),
		"aud": a.spec.Audience,
		"iss": a.spec.Issuer,
		"iat": jwt.NewNumericDate(now),
		"nbf": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(expiry),
	}
	identity := identityClaims(node)
	for name, value := range identity {
		claims[name] = value
	}
	claims["name"] = node.Name()
	claims["sub"] = a.subject(identity)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = key.ID

	signed, err := token.SignedString(key.Private)
	if err != nil {
		return "", dserrors.SigningError{Op: "signing", Err: err}
	}

	a.logger.Debug("issued token for %s (kid %s)", node.Path(), key.ID)
	return signed, nil
}

// subject composes the sub claim from the configured identity claims.
func (a *JWTAuthenticator) subject(identity map[string]interface{}) string {
	parts := make([]string, 0, len(a.spec.SubjectClaims))
	for _, name := range a.spec.SubjectClaims {
		if value, ok := identity[name]; ok {
			parts = append(parts, fmt.Sprintf("%v", value))
		}
	}
	return strings.Join(parts, a.spec.SubjectSeparator)
}

// identityClaims derives the caller-context claims from a tree node.
// Claims are only emitted when the context supplies them.
func identityClaims(node hierarchy.Node) map[string]interface{} {
	claims := map[string]interface{}{
		"jenkins_full_name": strings.TrimPrefix(node.Path(), "/"),
		"jenkins_name":      node.Name(),
	}

	if parent := node.Parent(); parent != nil && parent.Kind() != hierarchy.KindRoot {
		claims["jenkins_parent_full_name"] = strings.TrimPrefix(parent.Path(), "/")
		claims["jenkins_parent_name"] = parent.Name()
	}

	if job, ok := node.(*hierarchy.Job); ok {
		claims["jenkins_task_noun"] = "Build"
		claims["jenkins_url_child_prefix"] = "job"
		if job.BuildNumber > 0 {
			claims["jenkins_build_number"] = job.BuildNumber
		}
	}

	return claims
}
