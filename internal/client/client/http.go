package client

import (
	"bytes"
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

// HTTPClient implements the record store and reference data calls.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

func NewHTTPClient(baseURL string, hc *http.Client, logger logging.Logger) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  logger.With("module", "client"),
	}
}

func (c *HTTPClient) Categories(ctx context.Context) ([]catalog.Reference, error) {
	var out []catalog.Reference
	if err := c.do(ctx, http.MethodGet, api.CategoriesPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Collections(ctx context.Context) ([]catalog.Reference, error) {
	var out []catalog.Reference
	if err := c.do(ctx, http.MethodGet, api.CollectionsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct posts p and returns the new record id.
func (c *HTTPClient) CreateProduct(ctx context.Context, p catalog.Product) (string, error) {
	var out api.CreateProductResponse
	if err := c.do(ctx, http.MethodPost, api.ProductsPath, p, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("create product: empty id in response")
	}
	return out.ID, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		c.logger.Debug(ctx, "request failed", "method", method, "path", path, "status", resp.StatusCode)
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapStatus turns a non-2xx response into a sentinel-matching error.
func mapStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	var er api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &er); err != nil || er.Error == "" {
		er.Error = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, er.Error)
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		return &RejectedError{Status: resp.StatusCode, Message: er.Error, Fields: er.Fields}
	}
}
