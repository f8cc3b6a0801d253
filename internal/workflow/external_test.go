package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/quimera/domains/internal/activity"
	"github.com/quimera/domains/internal/model"
)

type SetupExternalDomainTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *SetupExternalDomainTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *SetupExternalDomainTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *SetupExternalDomainTestSuite) testDomain() model.Domain {
	return model.Domain{
		ID:                "dom-1",
		Domain:            "example.com",
		OwnerID:           "owner-1",
		Status:            model.StatusPending,
		External:          true,
		VerificationToken: "quimera-verify=tok",
	}
}

func (s *SetupExternalDomainTestSuite) TestSuccess_LeavesPendingNameservers() {
	domain := s.testDomain()

	s.env.OnActivity("GetDomainByID", mock.Anything, "dom-1").Return(&domain, nil)
	s.env.OnActivity("GetIngressConfig", mock.Anything).Return(&testIngress, nil)
	s.env.OnActivity("EnsureZone", mock.Anything, activity.EnsureZoneParams{
		Domain: "example.com",
	}).Return(&activity.EnsureZoneResult{
		ZoneID:      "zone-1",
		Status:      "pending",
		Nameservers: []string{"ns1.edge.test", "ns2.edge.test"},
	}, nil)
	s.env.OnActivity("SetDomainZone", mock.Anything, activity.SetDomainZoneParams{
		DomainID: "dom-1", ZoneID: "zone-1", Nameservers: []string{"ns1.edge.test", "ns2.edge.test"},
	}).Return(nil)
	s.env.OnActivity("RemoveConflictingRootRecords", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("CreateRecord", mock.Anything, mock.Anything).Return(nil).Times(3)
	s.env.OnActivity("EnableStrictTLS", mock.Anything, activity.EnableStrictTLSParams{
		ZoneID: "zone-1",
	}).Return(&activity.EnableStrictTLSResult{}, nil)
	s.env.OnActivity("AdvanceDomainStatus", mock.Anything, activity.AdvanceDomainStatusParams{
		DomainID: "dom-1", From: model.StatusPending, To: model.StatusPendingNameservers,
	}).Return(nil)

	s.env.ExecuteWorkflow(SetupExternalDomainWorkflow, "dom-1")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *SetupExternalDomainTestSuite) TestZoneFails_SetsDomainError() {
	domain := s.testDomain()

	s.env.OnActivity("GetDomainByID", mock.Anything, "dom-1").Return(&domain, nil)
	s.env.OnActivity("GetIngressConfig", mock.Anything).Return(&testIngress, nil)
	s.env.OnActivity("EnsureZone", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("provider unreachable"))
	s.env.OnActivity("SetDomainError", mock.Anything, matchDomainError("dom-1")).Return(nil)

	s.env.ExecuteWorkflow(SetupExternalDomainWorkflow, "dom-1")

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *SetupExternalDomainTestSuite) TestRerunAfterPendingNameserversDoesNotRegress() {
	domain := s.testDomain()
	domain.Status = model.StatusPendingNameservers

	s.env.OnActivity("GetDomainByID", mock.Anything, "dom-1").Return(&domain, nil)
	s.env.OnActivity("GetIngressConfig", mock.Anything).Return(&testIngress, nil)
	s.env.OnActivity("EnsureZone", mock.Anything, mock.Anything).Return(&activity.EnsureZoneResult{
		ZoneID: "zone-1",
	}, nil)
	s.env.OnActivity("SetDomainZone", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("RemoveConflictingRootRecords", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("CreateRecord", mock.Anything, mock.Anything).Return(nil).Times(3)
	s.env.OnActivity("EnableStrictTLS", mock.Anything, mock.Anything).
		Return(&activity.EnableStrictTLSResult{}, nil)
	// No AdvanceDomainStatus call: the status is already past pending.

	s.env.ExecuteWorkflow(SetupExternalDomainWorkflow, "dom-1")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func TestSetupExternalDomainTestSuite(t *testing.T) {
	suite.Run(t, new(SetupExternalDomainTestSuite))
}
