package model

// Domain lifecycle statuses, in forward order. A domain only moves forward
// through this order or jumps to StatusError; it never regresses except via
// explicit disconnect, which deletes the record.
const (
	StatusPending            = "pending"
	StatusPendingNameservers = "pending_nameservers"
	StatusVerifying          = "verifying"
	StatusSSLPending         = "ssl_pending"
	StatusActive             = "active"
	StatusError              = "error"
)

// SSL provisioning statuses.
const (
	SSLPending      = "pending"
	SSLProvisioning = "provisioning"
	SSLActive       = "active"
	SSLError        = "error"
)

// Domain purchase order statuses.
const (
	OrderPendingPayment      = "pending_payment"
	OrderRegistering         = "registering"
	OrderConfiguringDNS      = "configuring_dns"
	OrderUpdatingNameservers = "updating_nameservers"
	OrderCompleted           = "completed"
	OrderFailed              = "failed"
)

// statusRank orders the forward-only lifecycle. StatusError is reachable from
// any non-terminal status and is not ranked.
var statusRank = map[string]int{
	StatusPending:            0,
	StatusPendingNameservers: 1,
	StatusVerifying:          2,
	StatusSSLPending:         3,
	StatusActive:             4,
}

// IsTerminalStatus reports whether a domain in this status is done being
// reconciled. Active domains have converged; errored domains wait for a
// human retry.
func IsTerminalStatus(status string) bool {
	return status == StatusActive || status == StatusError
}

// CanTransition reports whether a domain may move from one status to another.
// Forward moves (including multi-step jumps such as pending_nameservers to
// active) are allowed; any non-terminal status may jump to error. Backward
// moves are rejected.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	if to == StatusError {
		return from != StatusActive && from != StatusError
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// NextStatus returns the single next step in the lifecycle for a verified
// domain. The reconciliation loop advances exactly one step per pass even
// when DNS already satisfies later steps.
func NextStatus(from string) (string, bool) {
	switch from {
	case StatusPending, StatusPendingNameservers, StatusVerifying:
		return StatusSSLPending, true
	case StatusSSLPending:
		return StatusActive, true
	default:
		return "", false
	}
}
