package client

import (
	"context"
	"errors"
	"net/http"
)

// CheckServerReachable probes the unauthenticated metadata endpoint.
// It reports false on any failure, including a malformed response.
func (c *Client) CheckServerReachable(ctx context.Context) bool {
	var meta Metadata
	if err := c.request(ctx, http.MethodGet, "/metadata", nil, &meta, requestOptions{}); err != nil {
		return false
	}
	return len(meta.APIVersions) > 0
}

// FetchState returns the current raw player state.
func (c *Client) FetchState(ctx context.Context) (*State, error) {
	var state State
	if err := c.request(ctx, http.MethodGet, "/state", nil, &state, requestOptions{authenticated: true}); err != nil {
		return nil, err
	}
	return &state, nil
}

type commandRequest struct {
	Command string `json:"command"`
	Data    any    `json:"data,omitempty"`
}

// SendCommand sends a named player command with an optional payload.
func (c *Client) SendCommand(ctx context.Context, name string, data any) error {
	return c.request(ctx, http.MethodPost, "/command", commandRequest{Command: name, Data: data}, nil,
		requestOptions{authenticated: true})
}

// RequestCode starts the auth handshake and returns the code to show the user.
func (c *Client) RequestCode(ctx context.Context, app AppInfo) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	if err := c.request(ctx, http.MethodPost, "/auth/requestcode", app, &resp, requestOptions{}); err != nil {
		return "", err
	}
	if resp.Code == "" {
		return "", errors.New("companion server returned an empty auth code")
	}
	return resp.Code, nil
}

// RequestToken exchanges an approved code for a token. It blocks until the user
// accepts or denies the request in the desktop app.
func (c *Client) RequestToken(ctx context.Context, appID, code string) (string, error) {
	body := struct {
		AppID string `json:"appId"`
		Code  string `json:"code"`
	}{AppID: appID, Code: code}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.request(ctx, http.MethodPost, "/auth/request", body, &resp, requestOptions{timeout: AuthTimeout}); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("companion server returned an empty token")
	}
	return resp.Token, nil
}
