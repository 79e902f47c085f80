// Package authz obtains single-use upload credentials from the authorization
// provider. Every call is one round trip; nothing is cached.
package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/api"
	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

// ErrAuthFailure wraps every reason an authorization request did not yield a
// usable credential.
var ErrAuthFailure = errors.New("authorization failure")

type Client struct {
	endpoint string
	http     *http.Client
	logger   logging.Logger
}

// New returns a Client talking to the provider at baseURL. A nil hc uses
// http.DefaultClient.
func New(baseURL string, hc *http.Client, logger logging.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + api.UploadAuthPath,
		http:     hc,
		logger:   logger.With("module", "authz"),
	}
}

// Authorize requests a fresh credential for exactly one upload attempt.
func (c *Client) Authorize(ctx context.Context) (catalog.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return catalog.Credential{}, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return catalog.Credential{}, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		c.logger.Warn(ctx, "authorization rejected", "status", resp.StatusCode)
		return catalog.Credential{}, fmt.Errorf("%w: %s: %s", ErrAuthFailure, resp.Status, strings.TrimSpace(string(b)))
	}

	var cred catalog.Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return catalog.Credential{}, fmt.Errorf("%w: decode: %w", ErrAuthFailure, err)
	}
	if err := cred.Validate(); err != nil {
		return catalog.Credential{}, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	return cred, nil
}
