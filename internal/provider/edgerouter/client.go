package edgerouter

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

	"github.com/quimera/domains/internal/apperror"
	"github.com/quimera/domains/internal/platform"
)

// API is the edge request router surface the activities depend on. The
// router terminates traffic for custom hostnames and forwards it to the
// owning project's backend.
type API interface {
	Register(ctx context.Context, hostname string) error
	Deregister(ctx context.Context, hostname string) error
}

// Client talks to the edge router's account-scoped JSON API with a bearer
// token.
type Client struct {
	baseURL    string
	token      string
	accountID  string
	httpClient *http.Client
}

func NewClient(baseURL, token, accountID string) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		token:     token,
		accountID: accountID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, apperror.ExternalProvider(err, "edge router %s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, nil
}

// zoneFor resolves the router zone owning a hostname. The full hostname is
// tried first (the customer may have delegated a subdomain as its own
// zone), then the registrable root. Both are single indexed lookups.
func (c *Client) zoneFor(ctx context.Context, hostname string) (string, error) {
	for _, candidate := range platform.ZoneCandidates(hostname) {
		path := fmt.Sprintf("/accounts/%s/zones?name=%s", c.accountID, url.QueryEscape(candidate))
		status, body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return "", err
		}
		if status >= 400 {
			return "", apperror.ExternalProvider(
				fmt.Errorf("status %d: %s", status, string(body)), "look up zone for %s", hostname)
		}

		var out struct {
			Zones []struct {
				ID string `json:"id"`
			} `json:"zones"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("decode zones: %w", err)
		}
		if len(out.Zones) > 0 {
			return out.Zones[0].ID, nil
		}
	}
	return "", apperror.NotFound("no edge router zone owns %s", hostname)
}

// Register attaches a hostname to the edge router so it starts accepting
// and routing traffic for it. Registering a hostname that is already
// attached is a no-op.
func (c *Client) Register(ctx context.Context, hostname string) error {
	zoneID, err := c.zoneFor(ctx, hostname)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/accounts/%s/zones/%s/hostnames", c.accountID, zoneID)
	status, body, err := c.do(ctx, http.MethodPost, path, map[string]any{"hostname": hostname})
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		return nil
	}
	if status >= 400 {
		if strings.Contains(strings.ToLower(string(body)), "already exists") {
			return nil
		}
		return apperror.ExternalProvider(
			fmt.Errorf("status %d: %s", status, string(body)), "register hostname %s", hostname)
	}
	return nil
}

// Deregister detaches a hostname from the edge router. A hostname that is
// not attached is already in the desired state.
func (c *Client) Deregister(ctx context.Context, hostname string) error {
	zoneID, err := c.zoneFor(ctx, hostname)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil
		}
		return err
	}

	path := fmt.Sprintf("/accounts/%s/zones/%s/hostnames/%s", c.accountID, zoneID, url.PathEscape(hostname))
	status, body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status >= 400 {
		return apperror.ExternalProvider(
			fmt.Errorf("status %d: %s", status, string(body)), "deregister hostname %s", hostname)
	}
	return nil
}
