package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretree/internal/authn"
	"github.com/systmms/secretree/internal/config"
	dserrors "github.com/systmms/secretree/internal/errors"
	"github.com/systmms/secretree/internal/hierarchy"
	"github.com/systmms/secretree/internal/logging"
	"github.com/systmms/secretree/internal/vault"
)

// scriptedAuthn fails or succeeds per node path and records the visit
// order, so tests can pin the exact climb sequence.
type scriptedAuthn struct {
	failures map[string]error
	visits   []string
	issued   [][]byte
}

func (s *scriptedAuthn) Name() string { return "scripted" }

func (s *scriptedAuthn) Authenticate(_ context.Context, ac authn.Context) ([]byte, error) {
	path := ac.Node.Path()
	s.visits = append(s.visits, path)
	if err, ok := s.failures[path]; ok {
		return nil, err
	}
	token := []byte("token-for-" + path)
	s.issued = append(s.issued, token)
	return token, nil
}

// testTree builds root -> teamA -> sub -> build with fragments on the
// root only, so every node resolves a configuration.
func testTree(t *testing.T, vaultURL string, jobInherit, subInherit bool) (*hierarchy.Root, *hierarchy.Folder, *hierarchy.Folder, *hierarchy.Job) {
	t.Helper()
	root := &hierarchy.Root{Global: &config.Fragment{ApplianceURL: vaultURL, Account: "orgX"}}
	teamA := &hierarchy.Folder{FolderName: "teamA", Up: root, Inherit: true}
	sub := &hierarchy.Folder{FolderName: "sub", Up: teamA, Inherit: subInherit}
	job := &hierarchy.Job{JobName: "build", Up: sub, Inherit: jobInherit}
	return root, teamA, sub, job
}

func newSecretServer(t *testing.T, value string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(value))
	}))
}

func newTestResolver(t *testing.T, auth authn.Authenticator, opts ...Option) *Resolver {
	t.Helper()
	logger := logging.New(false, true)
	return New(hierarchy.NewResolver(logger), auth, vault.NewClient(logger), logger, opts...)
}

func openValue(t *testing.T, s *Secret) string {
	t.Helper()
	locked, err := s.Value.Open()
	require.NoError(t, err)
	defer locked.Destroy()
	return string(locked.Bytes())
}

func TestGetSecretSuccessAtStartNode(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "s3cr3t")
	defer srv.Close()

	auth := &scriptedAuthn{}
	_, _, _, job := testTree(t, srv.URL, true, true)

	secret, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "db/password")
	require.NoError(t, err)
	defer secret.Destroy()

	assert.Equal(t, "s3cr3t", openValue(t, secret))
	assert.Equal(t, job, secret.Context)
	assert.Equal(t, []string{"/teamA/sub/build"}, auth.visits)
}

func TestGetSecretClimbsOneLevelAtATime(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	auth := &scriptedAuthn{failures: map[string]error{
		"/teamA/sub/build": dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
		"/teamA/sub":       dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
		"/teamA":           dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
	}}
	root, _, _, job := testTree(t, srv.URL, true, true)

	secret, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.NoError(t, err)
	defer secret.Destroy()

	assert.Equal(t, []string{"/teamA/sub/build", "/teamA/sub", "/teamA", "/"}, auth.visits)
	assert.Equal(t, hierarchy.Node(root), secret.Context)
}

func TestGetSecretBindsOwningContextToSucceedingNode(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	auth := &scriptedAuthn{failures: map[string]error{
		"/teamA/sub/build": dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
	}}
	_, _, sub, job := testTree(t, srv.URL, true, true)

	secret, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.NoError(t, err)
	defer secret.Destroy()

	// The parent folder's credentials succeeded; it owns the result.
	assert.Equal(t, hierarchy.Node(sub), secret.Context)
}

func TestGetSecretExhaustedAtRoot(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	auth := &scriptedAuthn{failures: map[string]error{
		"/teamA/sub/build": dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
		"/teamA/sub":       dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
		"/teamA":           dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
		"/":                dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
	}}
	_, _, _, job := testTree(t, srv.URL, true, true)

	_, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.Error(t, err)

	var ise dserrors.InvalidSecretError
	require.ErrorAs(t, err, &ise)
	assert.True(t, dserrors.IsAuthn(err))
	assert.Equal(t, []string{"/teamA/sub/build", "/teamA/sub", "/teamA", "/"}, auth.visits)
}

func TestGetSecretInheritOffJumpsToRoot(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	auth := &scriptedAuthn{failures: map[string]error{
		"/teamA/sub/build": dserrors.AuthnError{Code: 401, Reason: "Unauthorized"},
	}}
	root, _, _, job := testTree(t, srv.URL, false, true)

	secret, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.NoError(t, err)
	defer secret.Destroy()

	// Intermediate levels are never visited.
	assert.Equal(t, []string{"/teamA/sub/build", "/"}, auth.visits)
	assert.Equal(t, hierarchy.Node(root), secret.Context)
}

func TestGetSecretTransportFailureIsFatal(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	auth := &scriptedAuthn{failures: map[string]error{
		"/teamA/sub/build": dserrors.TransportError{Op: "authenticate", StatusCode: 502, Body: "bad gateway"},
	}}
	_, _, _, job := testTree(t, srv.URL, true, true)

	_, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.Error(t, err)

	var te dserrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, []string{"/teamA/sub/build"}, auth.visits, "transport failures must not be retried")
}

func TestGetSecretFetchDeniedClimbs(t *testing.T) {
	t.Parallel()

	// Authentication succeeds everywhere; the vault denies the fetch
	// until the root's token arrives.
	var fetches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		if fetches < 3 {
			http.Error(w, "no grant", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("granted"))
	}))
	defer srv.Close()

	auth := &scriptedAuthn{}
	_, teamA, _, _ := testTree(t, srv.URL, true, true)
	job := &hierarchy.Job{JobName: "build", Up: teamA, Inherit: true}

	secret, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.NoError(t, err)
	defer secret.Destroy()
	assert.Equal(t, "granted", openValue(t, secret))
	assert.Equal(t, 3, fetches)
}

func TestGetSecretConfigMissingClimbs(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	// sub blocks inheritance and defines nothing: resolution below it
	// is absent, and the walk must still reach the root's config.
	root := &hierarchy.Root{Global: &config.Fragment{ApplianceURL: srv.URL, Account: "orgX"}}
	teamA := &hierarchy.Folder{FolderName: "teamA", Up: root, Inherit: true}
	sub := &hierarchy.Folder{FolderName: "sub", Up: teamA, Inherit: false}
	job := &hierarchy.Job{JobName: "build", Up: sub, Inherit: true}

	auth := &scriptedAuthn{}
	secret, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.NoError(t, err)
	defer secret.Destroy()

	// No authentication is attempted where no configuration resolves.
	assert.Equal(t, []string{"/"}, auth.visits)
}

func TestGetSecretNilStartUsesDefault(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	auth := &scriptedAuthn{}
	root, _, _, _ := testTree(t, srv.URL, true, true)

	resolver := newTestResolver(t, auth, WithDefaultNode(root))
	secret, err := resolver.GetSecret(context.Background(), nil, "id")
	require.NoError(t, err)
	defer secret.Destroy()
	assert.Equal(t, []string{"/"}, auth.visits)
}

func TestGetSecretNilStartNoDefault(t *testing.T) {
	t.Parallel()

	auth := &scriptedAuthn{}
	_, err := newTestResolver(t, auth).GetSecret(context.Background(), nil, "id")
	require.Error(t, err)

	var ise dserrors.InvalidSecretError
	assert.ErrorAs(t, err, &ise)
}

func TestGetSecretWipesBearerToken(t *testing.T) {
	t.Parallel()

	srv := newSecretServer(t, "v")
	defer srv.Close()

	auth := &scriptedAuthn{}
	_, _, _, job := testTree(t, srv.URL, true, true)

	secret, err := newTestResolver(t, auth).GetSecret(context.Background(), job, "id")
	require.NoError(t, err)
	defer secret.Destroy()

	require.Len(t, auth.issued, 1)
	for i, c := range auth.issued[0] {
		assert.Zerof(t, c, "token byte %d not wiped", i)
	}
}
