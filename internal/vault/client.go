// Package vault implements the HTTP client for a Conjur-compatible
// secrets vault: authentication, secret retrieval, and resource listing.
package vault

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/systmms/secretree/internal/config"
	dserrors "github.com/systmms/secretree/internal/errors"
	"github.com/systmms/secretree/internal/logging"
)

// telemetryHeader identifies this integration to the vault.
const telemetryHeader = "x-cybr-telemetry"

// Client talks to one or more vault appliances. It is stateless apart
// from the underlying http.Client and safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
	version    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to install a
// TLS configuration. The default client has a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithVersion sets the integration version reported in telemetry.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// NewClient creates a vault client.
func NewClient(logger *logging.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		version:    "dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthenticateAPIKey exchanges a login's API key for a bearer token:
// POST {base}/{authnPath}/{account}/{login}/authenticate with the raw
// key as the body. The returned bytes are the vault's token; the caller
// owns them and must wipe them after use.
func (c *Client) AuthenticateAPIKey(ctx context.Context, cfg config.Fragment, login string, apiKey []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/%s/authenticate",
		strings.TrimSuffix(cfg.ApplianceURL, "/"),
		authnPath(cfg),
		url.PathEscape(cfg.Account),
		url.PathEscape(login))

	c.logger.Debug("authenticating login %s against %s", login, endpoint)
	return c.post(ctx, "authenticate", endpoint, apiKey)
}

// AuthenticateJWT exchanges a self-issued signed token for a bearer
// token: POST {base}/authn-jwt/{authnPath}/{account}/authenticate.
func (c *Client) AuthenticateJWT(ctx context.Context, cfg config.Fragment, signed []byte) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/authn-jwt/%s/%s/authenticate",
		strings.TrimSuffix(cfg.ApplianceURL, "/"),
		authnPath(cfg),
		url.PathEscape(cfg.Account))

	c.logger.Debug("authenticating signed token against %s", endpoint)
	return c.post(ctx, "authenticate", endpoint, signed)
}

// FetchSecret retrieves one secret value:
// GET {base}/secrets/{account}/variable/{identifier}.
// A 401/403/404 answer is an AuthnError so the retry resolver can climb;
// any other non-200 is a fatal TransportError.
func (c *Client) FetchSecret(ctx context.Context, cfg config.Fragment, token []byte, identifier string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/secrets/%s/variable/%s",
		strings.TrimSuffix(cfg.ApplianceURL, "/"),
		url.PathEscape(cfg.Account),
		url.QueryEscape(identifier))

	c.logger.Debug("fetching secret %s for account %s", logging.Secret(identifier), cfg.Account)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, dserrors.TransportError{Op: "fetch", Err: err}
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dserrors.TransportError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dserrors.TransportError{Op: "fetch", Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		// No grant and not-found are indistinguishable from bad
		// credentials for retry purposes.
		return nil, dserrors.AuthnError{Code: resp.StatusCode, Reason: string(body)}
	default:
		return nil, dserrors.TransportError{Op: "fetch", StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// Resource is one entry of the vault's bulk resource listing.
type Resource struct {
	ID          string       `json:"id"`
	Owner       string       `json:"owner"`
	Annotations []Annotation `json:"annotations"`
}

// Annotation is a name/value pair attached to a resource.
type Annotation struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Identifier strips the "account:kind:" prefix from the resource ID.
func (r Resource) Identifier() string {
	parts := strings.SplitN(r.ID, ":", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return r.ID
}

// Annotation returns the value of the named annotation, "" if absent.
func (r Resource) Annotation(name string) string {
	for _, a := range r.Annotations {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// ListResources performs the bulk variable listing:
// GET {base}/resources/{account}?kind=variable&limit=1000.
func (c *Client) ListResources(ctx context.Context, cfg config.Fragment, token []byte) ([]Resource, error) {
	endpoint := fmt.Sprintf("%s/resources/%s?kind=variable&limit=1000",
		strings.TrimSuffix(cfg.ApplianceURL, "/"),
		url.PathEscape(cfg.Account))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, dserrors.TransportError{Op: "list", Err: err}
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dserrors.TransportError{Op: "list", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dserrors.TransportError{Op: "list", Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var resources []Resource
		if err := json.Unmarshal(body, &resources); err != nil {
			return nil, dserrors.TransportError{Op: "list", StatusCode: resp.StatusCode,
				Body: "unparseable resource listing"}
		}
		return resources, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, dserrors.AuthnError{Code: resp.StatusCode, Reason: string(body)}
	default:
		return nil, dserrors.TransportError{Op: "list", StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// post sends body to an authenticate endpoint and returns the response
// bytes. 401/403 map to AuthnError, everything else non-200 to
// TransportError.
func (c *Client) post(ctx context.Context, op, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, dserrors.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(telemetryHeader, c.telemetry())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dserrors.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dserrors.TransportError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return respBody, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, dserrors.AuthnError{Code: resp.StatusCode, Reason: string(respBody)}
	default:
		return nil, dserrors.TransportError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}

// setHeaders applies the bearer token and telemetry headers. The token
// travels base64-encoded inside the Token scheme the vault expects.
func (c *Client) setHeaders(req *http.Request, token []byte) {
	encoded := base64.StdEncoding.EncodeToString(token)
	req.Header.Set("Authorization", fmt.Sprintf("Token token=%q", encoded))
	req.Header.Set(telemetryHeader, c.telemetry())
}

func (c *Client) telemetry() string {
	info := fmt.Sprintf("in=secretree|iv=%s|it=cybr-secretsmanager", c.version)
	return base64.RawURLEncoding.EncodeToString([]byte(info))
}

func authnPath(cfg config.Fragment) string {
	if cfg.AuthnPath == "" {
		return "authn"
	}
	return strings.Trim(cfg.AuthnPath, "/")
}
