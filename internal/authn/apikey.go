package authn

import (
	"context"
	"fmt"

	"github.com/systmms/secretree/internal/credstore"
	dserrors "github.com/systmms/secretree/internal/errors"
	"github.com/systmms/secretree/internal/logging"
	"github.com/systmms/secretree/internal/metrics"
	"github.com/systmms/secretree/internal/secure"
	"github.com/systmms/secretree/internal/vault"
)

// APIKeyAuthenticator implements the shared-secret strategy: the
// resolved configuration names a locally stored login/secret pair, and
// the raw secret is posted to the vault's authenticate endpoint.
type APIKeyAuthenticator struct {
	store  credstore.Store
	client *vault.Client
	logger *logging.Logger
}

// NewAPIKeyAuthenticator creates the shared-secret strategy.
func NewAPIKeyAuthenticator(store credstore.Store, client *vault.Client, logger *logging.Logger) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{store: store, client: client, logger: logger}
}

// Name implements Authenticator.
func (a *APIKeyAuthenticator) Name() string { return "api-key" }

// Authenticate implements Authenticator. When no local credential is
// stored under the configured identifier the attempt fails before any
// network call; the failure is an AuthnError so the retry resolver can
// climb to an ancestor whose configuration names a different credential.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, ac Context) ([]byte, error) {
	id := ac.Config.CredentialID
	if id == "" {
		metrics.RecordAuthnAttempt(a.Name(), "denied")
		return nil, dserrors.AuthnError{Reason: "no credential identifier configured"}
	}

	cred, ok := a.store.Lookup(id)
	if !ok {
		metrics.RecordAuthnAttempt(a.Name(), "denied")
		return nil, dserrors.AuthnError{Reason: fmt.Sprintf("no stored credential for id %s", id)}
	}
	defer secure.Wipe(cred.APIKey)

	a.logger.Debug("authenticating %s as %s", ac.Node.Path(), cred.Login)

	token, err := a.client.AuthenticateAPIKey(ctx, ac.Config, cred.Login, cred.APIKey)
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
