package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the hosted auth service (magic links and token refresh).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(authServiceURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AccessExp returns the access token expiry, preferring the absolute timestamp.
func (r *RefreshResponse) AccessExp(now time.Time) time.Time {
	if r.ExpiresAt > 0 {
		return time.Unix(r.ExpiresAt, 0)
	}
	if r.ExpiresIn > 0 {
		return now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return now.Add(time.Hour)
}

func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("auth url not configured")
	}
	body := map[string]string{"refresh_token": refreshToken}

	var result RefreshResponse
	if err := c.post(ctx, "/token?grant_type=refresh_token", body, &result); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("refresh: empty access token")
	}
	return &result, nil
}

// SendMagicLink asks the auth service to email a sign-in link that lands on redirectTo.
func (c *Client) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	if c.baseURL == "" {
		return fmt.Errorf("auth url not configured")
	}
	path := "/otp"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	body := map[string]any{"email": email, "create_user": true}
	if err := c.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("magic link: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
