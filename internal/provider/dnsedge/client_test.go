package dnsedge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateZone_IdempotentOnAlreadyExists(t *testing.T) {
	var createCalls, listCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/zones":
			createCalls++
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"errors":  []map[string]any{{"code": 1061, "message": "Zone already exists"}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/zones":
			listCalls++
			assert.Equal(t, "example.com", r.URL.Query().Get("name"))
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result": []map[string]any{{
					"id":           "zone-123",
					"name":         "example.com",
					"status":       "pending",
					"name_servers": []string{"ns1.edge.test", "ns2.edge.test"},
				}},
			})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token", "", "")

	// Creating the same zone twice must yield the same zone id both times.
	first, err := client.CreateZone(context.Background(), "example.com")
	require.NoError(t, err)
	second, err := client.CreateZone(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "zone-123", first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"ns1.edge.test", "ns2.edge.test"}, first.NameServers)
	assert.Equal(t, 2, createCalls)
	assert.Equal(t, 2, listCalls)
}

func TestCreateZone_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  map[string]any{"id": "zone-9", "name": "example.com", "status": "pending"},
		})
	}))
	defer srv.Close()

	zone, err := NewClient(srv.URL, "token", "", "").CreateZone(context.Background(), "example.com")

	require.NoError(t, err)
	assert.Equal(t, "zone-9", zone.ID)
}

func TestCreateRecord_ToleratesAlreadyExists(t *testing.T) {
	for _, code := range []int{81057, 81053} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"errors":  []map[string]any{{"code": code, "message": "Record already exists."}},
			})
		}))

		err := NewClient(srv.URL, "token", "", "").CreateRecord(context.Background(), "zone-1", Record{
			Type: "CNAME", Name: "example.com", Content: "ingress.quimera.app",
		})

		assert.NoError(t, err, "code %d", code)
		srv.Close()
	}
}

func TestCreateRecord_RealFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 9109, "message": "Invalid access token"}},
		})
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "token", "", "").CreateRecord(context.Background(), "zone-1", Record{
		Type: "A", Name: "example.com", Content: "203.0.113.10",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "9109")
}

func TestEnableStrictTLS_BestEffortPerSetting(t *testing.T) {
	var patched []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		setting := r.URL.Path[len("/zones/zone-1/settings/"):]
		patched = append(patched, setting)
		if setting == "always_use_https" {
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"errors":  []map[string]any{{"code": 1007, "message": "Invalid value"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "result": map[string]any{}})
	}))
	defer srv.Close()

	errs := NewClient(srv.URL, "token", "", "").EnableStrictTLS(context.Background(), "zone-1")

	// One setting failed but all three were attempted.
	assert.Len(t, errs, 1)
	assert.Equal(t, []string{"ssl", "always_use_https", "automatic_https_rewrites"}, patched)
}

func TestZoneStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/zones/zone-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  map[string]any{"id": "zone-1", "status": "active"},
		})
	}))
	defer srv.Close()

	status, err := NewClient(srv.URL, "token", "", "").ZoneStatus(context.Background(), "zone-1")

	require.NoError(t, err)
	assert.Equal(t, "active", status)
}

func TestLegacyAuthHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "ops@quimera.app", r.Header.Get("X-Auth-Email"))
		assert.Equal(t, "global-key", r.Header.Get("X-Auth-Key"))
		json.NewEncoder(w).Encode(map[string]any{"success": true, "result": map[string]any{"id": "z", "status": "pending"}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", "ops@quimera.app", "global-key").ZoneStatus(context.Background(), "z")
	assert.NoError(t, err)
}
