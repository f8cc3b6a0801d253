package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/quimera/domains/internal/activity"
)

// setDomainFailed is a helper to move a domain to the error status with a
// human-readable message. It returns any error but callers typically ignore
// it since the primary error is more important.
func setDomainFailed(ctx workflow.Context, domainID string, err error) error {
	return workflow.ExecuteActivity(ctx, "SetDomainError", activity.SetDomainErrorParams{
		DomainID: domainID,
		Message:  err.Error(),
	}).Get(ctx, nil)
}
