package signup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 64 << 10

// UserPoster sends one sign-up request. Failures are *TransportError.
type UserPoster interface {
	PostUser(ctx context.Context, body RequestBody) error
}

// Client posts sign-up requests to a backend origin.
type Client struct {
	userURL    string
	httpClient *http.Client
}

// NewClient resolves UserPath against origin. A nil httpClient gets a
// client with a 30s timeout.
func NewClient(origin string, httpClient *http.Client) (*Client, error) {
	userURL, err := ResolveURL(origin, UserPath)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{userURL: userURL, httpClient: httpClient}, nil
}

// ResolveURL makes a relative path absolute against origin.
func ResolveURL(origin, path string) (string, error) {
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("signup: parse origin: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("signup: origin %q is not absolute", origin)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("signup: parse path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) PostUser(ctx context.Context, body RequestBody) error {
	values, err := Encode(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.userURL, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("signup: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{
			StatusCode:  0,
			Err:         "network_error",
			UserMessage: MsgNetworkFailure,
			Cause:       err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	return standardizeResponseError(resp)
}

// standardizeResponseError prefers the server's {"error","userMessage"}
// body and falls back to the status text and a generic message.
func standardizeResponseError(resp *http.Response) *TransportError {
	te := &TransportError{
		StatusCode:  resp.StatusCode,
		Err:         http.StatusText(resp.StatusCode),
		UserMessage: MsgServerFailure,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return te
	}

	var body struct {
		Error       string `json:"error"`
		UserMessage string `json:"userMessage"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return te
	}
	if body.Error != "" {
		te.Err = body.Error
	}
	if body.UserMessage != "" {
		te.UserMessage = body.UserMessage
	}
	return te
}
