package registrar

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

	"github.com/quimera/domains/internal/apperror"
	"github.com/quimera/domains/internal/model"
)

// API is the registrar surface the activities depend on.
type API interface {
	CheckAvailability(ctx context.Context, names []string) ([]AvailabilityResult, error)
	Purchase(ctx context.Context, name string, years int, contact model.RegistrantContact) (string, error)
	SetNameservers(ctx context.Context, name string, nameservers []string) error
}

// AvailabilityResult reports whether a single name can be purchased and at
// what wholesale price.
type AvailabilityResult struct {
	Domain         string  `json:"domain"`
	Available      bool    `json:"available"`
	WholesalePrice float64 `json:"price"`
	Currency       string  `json:"currency"`
	Premium        bool    `json:"premium"`
}

// Client talks to the wholesale registrar's JSON API using basic auth.
type Client struct {
	baseURL    string
	user       string
	key        string
	httpClient *http.Client
}

func NewClient(baseURL, user, key string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		user:    user,
		key:     key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.ExternalProvider(err, "registrar %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return &apiError{status: resp.StatusCode, body: string(respBody), path: path}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type apiError struct {
	status int
	body   string
	path   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("registrar %s: status %d: %s", e.path, e.status, e.body)
}

// CheckAvailability queries availability and wholesale pricing for the
// given names in a single call.
func (c *Client) CheckAvailability(ctx context.Context, names []string) ([]AvailabilityResult, error) {
	payload := map[string]any{"domains": names}

	var out struct {
		Results []AvailabilityResult `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/availability", payload, &out); err != nil {
		return nil, apperror.ExternalProvider(err, "check domain availability")
	}
	return out.Results, nil
}

// Purchase registers a domain for the given number of years. A response
// indicating the domain is already registered to this account is treated
// as success: the purchase already happened on a previous attempt.
func (c *Client) Purchase(ctx context.Context, name string, years int, contact model.RegistrantContact) (string, error) {
	payload := map[string]any{
		"domain":     name,
		"years":      years,
		"registrant": contact,
	}

	var out struct {
		OrderRef string `json:"orderRef"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/v1/domains", payload, &out)
	if err != nil {
		if isAlreadyOwned(err) {
			return "", nil
		}
		return "", apperror.ExternalProvider(err, "purchase domain %s", name)
	}
	return out.OrderRef, nil
}

// SetNameservers replaces the authoritative nameserver set for a domain
// registered through this account.
func (c *Client) SetNameservers(ctx context.Context, name string, nameservers []string) error {
	payload := map[string]any{"nameservers": nameservers}

	path := fmt.Sprintf("/v1/domains/%s/nameservers", name)
	if err := c.doJSON(ctx, http.MethodPut, path, payload, nil); err != nil {
		return apperror.ExternalProvider(err, "set nameservers for %s", name)
	}
	return nil
}

// isAlreadyOwned detects the registrar's "domain already in your account"
// rejection, which means a previous purchase attempt succeeded.
func isAlreadyOwned(err error) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.status != http.StatusConflict && apiErr.status != http.StatusBadRequest {
		return false
	}
	body := strings.ToLower(apiErr.body)
	return strings.Contains(body, "already registered") || strings.Contains(body, "already in your account")
}
