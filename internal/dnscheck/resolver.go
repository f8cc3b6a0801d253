package dnscheck

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// RecordState holds the live DNS answers observed for a domain. A missing
// record is an empty field, never an error: absence is the normal state
// while a customer is still configuring DNS.
type RecordState struct {
	Domain string
	A      []string
	CNAME  string
	TXT    []string

	// LookupErrors collects resolver failures other than NXDOMAIN. They are
	// surfaced for logging only; the domain still evaluates as unverified.
	LookupErrors []string
}

// Resolver performs live DNS lookups against the system resolver.
type Resolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
	}
}

// Lookup resolves the A, CNAME, and verification TXT records concurrently.
// The A lookup runs against domain; cnameName is the name expected to carry
// the CNAME ("www.<domain>" for site domains, since most DNS hosts refuse
// apex CNAMEs; the domain itself for portal domains); txtName is the fully
// qualified name carrying the verification token (normally
// "_verify.<domain>").
func (r *Resolver) Lookup(ctx context.Context, domain, cnameName, txtName string) *RecordState {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	state := &RecordState{Domain: domain}
	var aErr, cnameErr, txtErr string

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ips, err := r.resolver.LookupIPAddr(ctx, domain)
		if err != nil {
			aErr = collapseNotFound(err)
			return nil
		}
		for _, ip := range ips {
			if v4 := ip.IP.To4(); v4 != nil {
				state.A = append(state.A, v4.String())
			}
		}
		return nil
	})

	g.Go(func() error {
		cname, err := r.resolver.LookupCNAME(ctx, cnameName)
		if err != nil {
			cnameErr = collapseNotFound(err)
			return nil
		}
		// LookupCNAME echoes the queried name when no CNAME exists; treat
		// that as no CNAME.
		cname = normalizeTarget(cname)
		if cname != normalizeTarget(cnameName) {
			state.CNAME = cname
		}
		return nil
	})

	g.Go(func() error {
		txts, err := r.resolver.LookupTXT(ctx, txtName)
		if err != nil {
			txtErr = collapseNotFound(err)
			return nil
		}
		state.TXT = txts
		return nil
	})

	g.Wait()

	for _, msg := range []string{aErr, cnameErr, txtErr} {
		if msg != "" {
			state.LookupErrors = append(state.LookupErrors, msg)
		}
	}

	return state
}

// collapseNotFound maps NXDOMAIN/no-answer to the empty string (a missing
// record is not an error) and reduces everything else to a log message.
func collapseNotFound(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return ""
	}
	return err.Error()
}

func normalizeTarget(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".")
}
