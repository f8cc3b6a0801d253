package dnsedge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quimera/domains/internal/apperror"
)

// Error codes returned by the DNS edge provider that signal a state we
// already converged to rather than a real failure.
const (
	codeZoneAlreadyExists    = 1061
	codeRecordAlreadyExists  = 81057
	codeRecordDuplicateCNAME = 81053
)

// API is the DNS edge provider surface the activities depend on.
type API interface {
	CreateZone(ctx context.Context, name string) (*Zone, error)
	GetZoneByName(ctx context.Context, name string) (*Zone, error)
	ZoneStatus(ctx context.Context, zoneID string) (string, error)
	ListRecords(ctx context.Context, zoneID, recordType, name string) ([]Record, error)
	CreateRecord(ctx context.Context, zoneID string, record Record) error
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
	EnableStrictTLS(ctx context.Context, zoneID string) []error
}

// Zone is a DNS zone at the edge provider.
type Zone struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	NameServers []string `json:"name_servers"`
}

// Record is a DNS record in a zone.
type Record struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl,omitempty"`
	Proxied bool   `json:"proxied"`
}

type envelope struct {
	Success bool            `json:"success"`
	Errors  []apiErrorEntry `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiErrorEntry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client talks to the DNS edge provider's v4-style JSON API. Auth is
// either a scoped API token or the legacy email + global key pair.
type Client struct {
	baseURL      string
	apiToken     string
	accountEmail string
	globalKey    string
	httpClient   *http.Client
}

func NewClient(baseURL, apiToken, accountEmail, globalKey string) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiToken:     apiToken,
		accountEmail: accountEmail,
		globalKey:    globalKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	} else {
		req.Header.Set("X-Auth-Email", c.accountEmail)
		req.Header.Set("X-Auth-Key", c.globalKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.ExternalProvider(err, "dns edge %s %s", method, path)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		return &env, &apiError{entries: env.Errors, path: path}
	}
	return &env, nil
}

type apiError struct {
	entries []apiErrorEntry
	path    string
}

func (e *apiError) Error() string {
	parts := make([]string, 0, len(e.entries))
	for _, entry := range e.entries {
		parts = append(parts, fmt.Sprintf("%d: %s", entry.Code, entry.Message))
	}
	return fmt.Sprintf("dns edge %s: %s", e.path, strings.Join(parts, "; "))
}

func (e *apiError) hasCode(codes ...int) bool {
	for _, entry := range e.entries {
		for _, code := range codes {
			if entry.Code == code {
				return true
			}
		}
	}
	return false
}

// CreateZone creates a zone for the given name. If the zone already exists
// the existing zone is looked up and returned: creation is idempotent and
// always yields the same zone id for the same name.
func (c *Client) CreateZone(ctx context.Context, name string) (*Zone, error) {
	env, err := c.do(ctx, http.MethodPost, "/zones", map[string]any{"name": name})
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.hasCode(codeZoneAlreadyExists) {
			return c.GetZoneByName(ctx, name)
		}
		return nil, apperror.ExternalProvider(err, "create zone %s", name)
	}

	var zone Zone
	if err := json.Unmarshal(env.Result, &zone); err != nil {
		return nil, fmt.Errorf("decode zone: %w", err)
	}
	return &zone, nil
}

// GetZoneByName finds an existing zone by exact name.
func (c *Client) GetZoneByName(ctx context.Context, name string) (*Zone, error) {
	path := "/zones?name=" + url.QueryEscape(name)
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, apperror.ExternalProvider(err, "get zone %s", name)
	}

	var zones []Zone
	if err := json.Unmarshal(env.Result, &zones); err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	if len(zones) == 0 {
		return nil, apperror.NotFound("zone %s not found", name)
	}
	return &zones[0], nil
}

// ZoneStatus reports the provider's activation state for a zone, normally
// "pending" until the nameserver delegation is seen, then "active".
func (c *Client) ZoneStatus(ctx context.Context, zoneID string) (string, error) {
	env, err := c.do(ctx, http.MethodGet, "/zones/"+zoneID, nil)
	if err != nil {
		return "", apperror.ExternalProvider(err, "get zone status %s", zoneID)
	}

	var zone Zone
	if err := json.Unmarshal(env.Result, &zone); err != nil {
		return "", fmt.Errorf("decode zone: %w", err)
	}
	return zone.Status, nil
}

// ListRecords lists records in a zone, optionally filtered by type and name.
func (c *Client) ListRecords(ctx context.Context, zoneID, recordType, name string) ([]Record, error) {
	q := url.Values{}
	if recordType != "" {
		q.Set("type", recordType)
	}
	if name != "" {
		q.Set("name", name)
	}
	path := "/zones/" + zoneID + "/dns_records"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, apperror.ExternalProvider(err, "list records in zone %s", zoneID)
	}

	var records []Record
	if err := json.Unmarshal(env.Result, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// CreateRecord adds a record to a zone. "Record already exists" responses
// are swallowed: the desired state is already in place.
func (c *Client) CreateRecord(ctx context.Context, zoneID string, record Record) error {
	if record.TTL == 0 {
		record.TTL = 1 // provider-managed TTL
	}
	_, err := c.do(ctx, http.MethodPost, "/zones/"+zoneID+"/dns_records", record)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.hasCode(codeRecordAlreadyExists, codeRecordDuplicateCNAME) {
			return nil
		}
		return apperror.ExternalProvider(err, "create %s record %s", record.Type, record.Name)
	}
	return nil
}

// DeleteRecord removes a record from a zone.
func (c *Client) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/zones/"+zoneID+"/dns_records/"+recordID, nil)
	if err != nil {
		return apperror.ExternalProvider(err, "delete record %s in zone %s", recordID, zoneID)
	}
	return nil
}

// EnableStrictTLS applies the TLS hardening settings to a zone. The three
// settings are independent: a failure on one does not stop the others,
// and all failures are returned for logging.
func (c *Client) EnableStrictTLS(ctx context.Context, zoneID string) []error {
	settings := []struct {
		name  string
		value string
	}{
		{"ssl", "strict"},
		{"always_use_https", "on"},
		{"automatic_https_rewrites", "on"},
	}

	var errs []error
	for _, s := range settings {
		path := "/zones/" + zoneID + "/settings/" + s.name
		if _, err := c.do(ctx, http.MethodPatch, path, map[string]any{"value": s.value}); err != nil {
			errs = append(errs, fmt.Errorf("set %s=%s: %w", s.name, s.value, err))
		}
	}
	return errs
}
