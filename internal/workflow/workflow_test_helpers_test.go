package workflow

import (
	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/testsuite"

	"github.com/quimera/domains/internal/activity"
)

// registerActivities registers activity structs with the test workflow
// environment so that parameter and return types can be deserialized correctly
// by the Temporal test framework. In unit tests, all activities are mocked via
// OnActivity, but the framework still needs the type information for proper
// serialization/deserialization of activity parameters and return values.
func registerActivities(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivity(&activity.DomainDB{})
	env.RegisterActivity(&activity.Registrar{})
	env.RegisterActivity(&activity.DNSEdge{})
	env.RegisterActivity(&activity.EdgeRouter{})
	env.RegisterActivity(&activity.Verify{})
	env.RegisterActivity(&activity.Platform{})
}

// matchDomainError returns a matcher for SetDomainErrorParams that checks
// the domain id and requires a non-empty message. The exact message includes
// Temporal activity error wrapping that is not predictable in tests.
func matchDomainError(domainID string) interface{} {
	return mock.MatchedBy(func(params activity.SetDomainErrorParams) bool {
		return params.DomainID == domainID && params.Message != ""
	})
}

// matchFailedOrder returns a matcher for FailOrderParams that checks the
// order id and requires a non-empty reason.
func matchFailedOrder(orderID string) interface{} {
	return mock.MatchedBy(func(params activity.FailOrderParams) bool {
		return params.OrderID == orderID && params.Reason != ""
	})
}

var testIngress = activity.IngressConfig{
	Hostname:          "ingress.quimera.app",
	IPs:               []string{"203.0.113.10"},
	PortalCNAMETarget: "portal.quimera.app",
}
