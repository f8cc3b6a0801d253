package dnscheck

import (
	"fmt"
	"strings"
	"time"
)

// Expectation describes the records a domain must carry to be considered
// connected: either an A record at one of the ingress IPs or a CNAME at
// the ingress hostname, plus a TXT verification token.
type Expectation struct {
	IngressHostname string
	IngressIPs      []string
	CNAMETarget     string
	Token           string
}

// Verdict is the outcome of evaluating observed DNS state against an
// expectation.
type Verdict struct {
	Verified      bool      `json:"verified"`
	AVerified     bool      `json:"aVerified"`
	CNAMEVerified bool      `json:"cnameVerified"`
	TXTVerified   bool      `json:"txtVerified"`
	Message       string    `json:"message,omitempty"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// EvaluateRoot checks a site domain. Either a matching A record or a
// matching CNAME is sufficient; the TXT token is checked and reported but
// does not gate the verdict.
func EvaluateRoot(state *RecordState, expect Expectation) Verdict {
	v := Verdict{CheckedAt: time.Now().UTC()}

	v.AVerified = matchesAnyIP(state.A, expect.IngressIPs)
	v.CNAMEVerified = state.CNAME != "" && state.CNAME == normalizeTarget(expect.IngressHostname)
	v.TXTVerified = containsToken(state.TXT, expect.Token)

	v.Verified = v.AVerified || v.CNAMEVerified
	if !v.Verified {
		v.Message = fmt.Sprintf("no A record pointing at %s and no CNAME pointing at %s",
			strings.Join(expect.IngressIPs, ", "), expect.IngressHostname)
	}

	return v
}

// EvaluatePortal checks a portal domain. Both the CNAME and the TXT token
// must be present; the message names whichever record is missing.
func EvaluatePortal(state *RecordState, expect Expectation) Verdict {
	v := Verdict{CheckedAt: time.Now().UTC()}

	v.CNAMEVerified = state.CNAME != "" && state.CNAME == normalizeTarget(expect.CNAMETarget)
	v.TXTVerified = containsToken(state.TXT, expect.Token)

	v.Verified = v.CNAMEVerified && v.TXTVerified

	var missing []string
	if !v.CNAMEVerified {
		missing = append(missing, fmt.Sprintf("CNAME record pointing at %s", expect.CNAMETarget))
	}
	if !v.TXTVerified {
		missing = append(missing, "TXT verification record")
	}
	if len(missing) > 0 {
		v.Message = "missing " + strings.Join(missing, " and ")
	}

	return v
}

func matchesAnyIP(observed, allowed []string) bool {
	for _, got := range observed {
		for _, want := range allowed {
			if got == want {
				return true
			}
		}
	}
	return false
}

func containsToken(txts []string, token string) bool {
	if token == "" {
		return false
	}
	for _, txt := range txts {
		if strings.TrimSpace(txt) == token {
			return true
		}
	}
	return false
}
