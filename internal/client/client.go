// Package client is the typed HTTP client for the InvoiceFlow API. Every
// call that needs a session takes the token explicitly.
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
	"time"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

// ErrUnauthorized is matched by API errors carrying a 401.
var ErrUnauthorized = errors.New("not logged in")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Auth is a started session.
type Auth struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*Auth, error) {
	var out Auth

	body := map[string]string{"email": email, "password": password, "displayName": displayName}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Auth, error) {
	var out Auth

	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Data fetches the caller's whole business document.
func (c *Client) Data(ctx context.Context, token string) (*billing.BusinessData, error) {
	var out billing.BusinessData
	if err := c.do(ctx, http.MethodGet, "/api/v1/data", token, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SaveData replaces the caller's whole business document.
func (c *Client) SaveData(ctx context.Context, token string, data *billing.BusinessData) error {
	return c.do(ctx, http.MethodPut, "/api/v1/data", token, data, nil)
}

func (c *Client) ToggleFavorite(ctx context.Context, token, recipientID string) (*billing.Recipient, error) {
	var out billing.Recipient
	if err := c.do(ctx, http.MethodPost, "/api/v1/data/recipients/"+recipientID+"/favorite", token, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Totals(ctx context.Context, token string, inv billing.Invoice) (billing.Totals, error) {
	var out billing.Totals

	err := c.do(ctx, http.MethodPost, "/api/v1/invoices/totals", token, map[string]any{"invoice": inv}, &out)

	return out, err
}

// do sends in as JSON and decodes the response into out when out is set.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	resp, err := c.send(ctx, method, path, token, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, in any) (*http.Response, error) {
	var body io.Reader

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}

		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}

	var e struct {
		Error string `json:"error"`
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		apiErr.Message = e.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return nil, apiErr
}
