// Package backend implements the REST client of the Mr Ermin backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const maxErrorBody = 4 << 10

// Client of the backend REST API rooted at <origin>/api.
// All methods except Login and VerifyEmail take the bearer token of the session.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New instantiates and returns a new client for the backend at the given origin.
func New(origin string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(origin, "/") + "/api",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends a JSON request and decodes the JSON response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshaling request")
		}
		body = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	request.Header.Set("Accept", "application/json")
	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, StatusCode: response.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}
