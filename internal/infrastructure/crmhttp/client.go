package crmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

const defaultTimeout = 15 * time.Second

var ErrUnauthorized = errors.New("crm rejected credentials")

// Client talks to a CRM exposing a plain JSON REST surface:
// /accounts, /contacts, /donations, /recurring-donations, /campaigns.
type Client struct {
	Address string
	APIKey  string
	HTTP    *http.Client
}

var _ domain.CrmClient = (*Client)(nil)

func NewClient(address, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		Address: strings.TrimRight(address, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// do performs one request. A 404 yields found=false with no error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (bool, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		requestBodyBytes, err := json.Marshal(body)
		if err != nil {
			return false, err
		}
		reader = bytes.NewBuffer(requestBodyBytes)
	}

	target := c.Address + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, err
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	response, err := c.HTTP.Do(request)
	if err != nil {
		return false, &domain.TransientError{Op: op, Err: err}
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return false, &domain.TransientError{Op: op, Err: err}
	}

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		if out == nil || len(responseBodyBytes) == 0 {
			return true, nil
		}
		if err := json.Unmarshal(responseBodyBytes, out); err != nil {
			return false, fmt.Errorf("%s: decode response: %w", op, err)
		}
		return true, nil
	case response.StatusCode == http.StatusNotFound:
		return false, nil
	case response.StatusCode == http.StatusUnauthorized, response.StatusCode == http.StatusForbidden:
		return false, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case response.StatusCode == http.StatusTooManyRequests, response.StatusCode >= 500:
		return false, &domain.TransientError{Op: op, Err: statusError(response.StatusCode, responseBodyBytes)}
	default:
		return false, fmt.Errorf("%s: %w", op, statusError(response.StatusCode, responseBodyBytes))
	}
}

func statusError(code int, body []byte) error {
	var errorResponse ErrorResponse
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error != "" {
		return fmt.Errorf("status %d: %s", code, errorResponse.Error)
	}
	return fmt.Errorf("status %d", code)
}

// getOne decodes a resource, or a list whose first element the caller takes.
func (c *Client) getOne(ctx context.Context, path string, query url.Values, out any) (bool, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) insert(ctx context.Context, path string, body any) (string, error) {
	var created IDResponse
	if _, err := c.do(ctx, http.MethodPost, path, nil, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("POST %s: crm returned no id", path)
	}
	return created.ID, nil
}

func (c *Client) update(ctx context.Context, path, id string, body any) error {
	found, err := c.do(ctx, http.MethodPut, path+"/"+url.PathEscape(id), nil, body, nil)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("PUT %s/%s: record not found", path, id)
	}
	return nil
}

func first[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}
