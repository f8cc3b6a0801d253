package activity

import (
	"context"
	"fmt"

	"github.com/quimera/domains/internal/provider/dnsedge"
)

// DNSEdge contains activities that manage zones and records at the DNS
// edge provider.
type DNSEdge struct {
	api dnsedge.API
}

// NewDNSEdge creates a new DNSEdge activity struct.
func NewDNSEdge(api dnsedge.API) *DNSEdge {
	return &DNSEdge{api: api}
}

// EnsureZoneParams holds parameters for EnsureZone.
type EnsureZoneParams struct {
	Domain string `json:"domain"`
}

// EnsureZoneResult is the provider zone binding for a domain.
type EnsureZoneResult struct {
	ZoneID      string   `json:"zone_id"`
	Status      string   `json:"status"`
	Nameservers []string `json:"nameservers"`
}

// EnsureZone creates the provider zone for a domain, or returns the
// existing one. Repeated calls yield the same zone id.
func (a *DNSEdge) EnsureZone(ctx context.Context, params EnsureZoneParams) (*EnsureZoneResult, error) {
	zone, err := a.api.CreateZone(ctx, params.Domain)
	if err != nil {
		return nil, fmt.Errorf("ensure zone for %s: %w", params.Domain, err)
	}
	return &EnsureZoneResult{
		ZoneID:      zone.ID,
		Status:      zone.Status,
		Nameservers: zone.NameServers,
	}, nil
}

// RemoveConflictingRootRecordsParams holds parameters for
// RemoveConflictingRootRecords.
type RemoveConflictingRootRecordsParams struct {
	ZoneID string `json:"zone_id"`
	Domain string `json:"domain"`
}

// RemoveConflictingRootRecords deletes A records at the zone apex that
// would shadow the CNAME flattening about to be installed there.
func (a *DNSEdge) RemoveConflictingRootRecords(ctx context.Context, params RemoveConflictingRootRecordsParams) error {
	records, err := a.api.ListRecords(ctx, params.ZoneID, "A", params.Domain)
	if err != nil {
		return fmt.Errorf("list root A records: %w", err)
	}
	for _, rec := range records {
		if err := a.api.DeleteRecord(ctx, params.ZoneID, rec.ID); err != nil {
			return fmt.Errorf("delete conflicting A record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// CreateRecordParams holds parameters for CreateRecord.
type CreateRecordParams struct {
	ZoneID  string `json:"zone_id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Proxied bool   `json:"proxied"`
}

// CreateRecord writes one DNS record. Already-existing records count as
// success.
func (a *DNSEdge) CreateRecord(ctx context.Context, params CreateRecordParams) error {
	err := a.api.CreateRecord(ctx, params.ZoneID, dnsedge.Record{
		Type:    params.Type,
		Name:    params.Name,
		Content: params.Content,
		Proxied: params.Proxied,
	})
	if err != nil {
		return fmt.Errorf("create %s record %s: %w", params.Type, params.Name, err)
	}
	return nil
}

// EnableStrictTLSParams holds parameters for EnableStrictTLS.
type EnableStrictTLSParams struct {
	ZoneID string `json:"zone_id"`
}

// EnableStrictTLSResult lists per-setting failures; an empty list means all
// three settings applied.
type EnableStrictTLSResult struct {
	Failures []string `json:"failures,omitempty"`
}

// EnableStrictTLS applies TLS hardening to a zone. Setting failures are
// reported, not returned as an activity error: the caller decides whether
// they matter.
func (a *DNSEdge) EnableStrictTLS(ctx context.Context, params EnableStrictTLSParams) (*EnableStrictTLSResult, error) {
	result := &EnableStrictTLSResult{}
	for _, err := range a.api.EnableStrictTLS(ctx, params.ZoneID) {
		result.Failures = append(result.Failures, err.Error())
	}
	return result, nil
}

// GetZoneStatusParams holds parameters for GetZoneStatus.
type GetZoneStatusParams struct {
	ZoneID string `json:"zone_id"`
}

// GetZoneStatusResult reports the provider's activation state for a zone.
type GetZoneStatusResult struct {
	Status string `json:"status"`
}

// GetZoneStatus checks whether the provider has seen the nameserver
// delegation for a zone.
func (a *DNSEdge) GetZoneStatus(ctx context.Context, params GetZoneStatusParams) (*GetZoneStatusResult, error) {
	status, err := a.api.ZoneStatus(ctx, params.ZoneID)
	if err != nil {
		return nil, fmt.Errorf("get zone status: %w", err)
	}
	return &GetZoneStatusResult{Status: status}, nil
}

// DeleteZoneRecordsParams holds parameters for DeleteZoneRecords.
type DeleteZoneRecordsParams struct {
	ZoneID string   `json:"zone_id"`
	Names  []string `json:"names"`
}

// DeleteZoneRecords removes all records at the given names from a zone.
// Used when disconnecting a domain.
func (a *DNSEdge) DeleteZoneRecords(ctx context.Context, params DeleteZoneRecordsParams) error {
	for _, name := range params.Names {
		records, err := a.api.ListRecords(ctx, params.ZoneID, "", name)
		if err != nil {
			return fmt.Errorf("list records at %s: %w", name, err)
		}
		for _, rec := range records {
			if err := a.api.DeleteRecord(ctx, params.ZoneID, rec.ID); err != nil {
				return fmt.Errorf("delete record %s: %w", rec.ID, err)
			}
		}
	}
	return nil
}
