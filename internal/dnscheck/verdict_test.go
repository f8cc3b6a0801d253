package dnscheck

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	netDNSNotFound = net.DNSError{Err: "no such host", Name: "example.com", IsNotFound: true}
	netDNSTimeout  = net.DNSError{Err: "i/o timeout", Name: "example.com", IsTimeout: true}
)

var testExpect = Expectation{
	IngressHostname: "ingress.quimera.app",
	IngressIPs:      []string{"203.0.113.10", "203.0.113.11"},
	CNAMETarget:     "portal.quimera.app",
	Token:           "quimera-verify=abc123",
}

func TestEvaluateRoot_AOnly(t *testing.T) {
	state := &RecordState{
		Domain: "example.com",
		A:      []string{"203.0.113.11"},
	}

	v := EvaluateRoot(state, testExpect)

	assert.True(t, v.Verified)
	assert.True(t, v.AVerified)
	assert.False(t, v.CNAMEVerified)
	assert.False(t, v.TXTVerified)
	assert.Empty(t, v.Message)
}

func TestEvaluateRoot_CNAMEOnly(t *testing.T) {
	state := &RecordState{
		Domain: "example.com",
		CNAME:  "ingress.quimera.app",
	}

	v := EvaluateRoot(state, testExpect)

	assert.True(t, v.Verified)
	assert.True(t, v.CNAMEVerified)
	assert.False(t, v.AVerified)
}

func TestEvaluateRoot_TXTAloneIsNotEnough(t *testing.T) {
	state := &RecordState{
		Domain: "example.com",
		TXT:    []string{"quimera-verify=abc123"},
	}

	v := EvaluateRoot(state, testExpect)

	assert.False(t, v.Verified)
	assert.True(t, v.TXTVerified)
	assert.Contains(t, v.Message, "no A record")
	assert.Contains(t, v.Message, "no CNAME")
}

func TestEvaluateRoot_WrongIP(t *testing.T) {
	state := &RecordState{
		Domain: "example.com",
		A:      []string{"198.51.100.1"},
	}

	v := EvaluateRoot(state, testExpect)

	assert.False(t, v.Verified)
	assert.False(t, v.AVerified)
}

func TestEvaluatePortal_RequiresBoth(t *testing.T) {
	tests := []struct {
		name     string
		state    *RecordState
		verified bool
		message  string
	}{
		{
			name: "cname and txt",
			state: &RecordState{
				CNAME: "portal.quimera.app",
				TXT:   []string{"quimera-verify=abc123"},
			},
			verified: true,
		},
		{
			name: "cname only",
			state: &RecordState{
				CNAME: "portal.quimera.app",
			},
			verified: false,
			message:  "missing TXT verification record",
		},
		{
			name: "txt only",
			state: &RecordState{
				TXT: []string{"quimera-verify=abc123"},
			},
			verified: false,
			message:  "missing CNAME record pointing at portal.quimera.app",
		},
		{
			name:     "neither",
			state:    &RecordState{},
			verified: false,
			message:  "missing CNAME record pointing at portal.quimera.app and TXT verification record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := EvaluatePortal(tt.state, testExpect)
			assert.Equal(t, tt.verified, v.Verified)
			assert.Equal(t, tt.message, v.Message)
		})
	}
}

func TestEvaluatePortal_TrailingDotAndCaseInsensitiveTarget(t *testing.T) {
	state := &RecordState{
		CNAME: "portal.quimera.app",
		TXT:   []string{"  quimera-verify=abc123  "},
	}
	expect := testExpect
	expect.CNAMETarget = "Portal.Quimera.app."

	v := EvaluatePortal(state, expect)

	assert.True(t, v.Verified)
}

func TestEvaluateRoot_EmptyTokenNeverVerifiesTXT(t *testing.T) {
	state := &RecordState{TXT: []string{""}}
	expect := testExpect
	expect.Token = ""

	v := EvaluateRoot(state, expect)

	assert.False(t, v.TXTVerified)
}

func TestCollapseNotFound(t *testing.T) {
	assert.Empty(t, collapseNotFound(&netDNSNotFound))
	assert.NotEmpty(t, collapseNotFound(&netDNSTimeout))
}
