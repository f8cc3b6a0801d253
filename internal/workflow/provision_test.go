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

type ProvisionPurchasedDomainTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *ProvisionPurchasedDomainTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *ProvisionPurchasedDomainTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *ProvisionPurchasedDomainTestSuite) testOrder() model.DomainOrder {
	projectID := "proj-1"
	return model.DomainOrder{
		ID:         "order-1",
		OwnerID:    "owner-1",
		DomainName: "example.com",
		ProjectID:  &projectID,
		TermYears:  1,
		Status:     model.OrderRegistering,
	}
}

func (s *ProvisionPurchasedDomainTestSuite) testDomain() model.Domain {
	projectID := "proj-1"
	return model.Domain{
		ID:                "dom-1",
		Domain:            "example.com",
		OwnerID:           "owner-1",
		ProjectID:         &projectID,
		Status:            model.StatusPending,
		VerificationToken: "quimera-verify=tok",
	}
}

func (s *ProvisionPurchasedDomainTestSuite) TestSuccess() {
	order := s.testOrder()
	domain := s.testDomain()

	s.env.OnActivity("GetOrderByID", mock.Anything, "order-1").Return(&order, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderRegistering,
	}).Return(nil)
	s.env.OnActivity("PurchaseDomain", mock.Anything, activity.PurchaseDomainParams{
		Domain: "example.com", TermYears: 1,
	}).Return(&activity.PurchaseDomainResult{RegistrarRef: "reg-7"}, nil)
	s.env.OnActivity("CreateDomainForOrder", mock.Anything, activity.CreateDomainForOrderParams{
		OrderID: "order-1",
	}).Return(&domain, nil)
	ref := "reg-7"
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderConfiguringDNS, RegistrarRef: &ref,
	}).Return(nil)
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
	s.env.OnActivity("RemoveConflictingRootRecords", mock.Anything, activity.RemoveConflictingRootRecordsParams{
		ZoneID: "zone-1", Domain: "example.com",
	}).Return(nil)
	s.env.OnActivity("CreateRecord", mock.Anything, activity.CreateRecordParams{
		ZoneID: "zone-1", Type: "CNAME", Name: "example.com", Content: "ingress.quimera.app", Proxied: true,
	}).Return(nil)
	s.env.OnActivity("CreateRecord", mock.Anything, activity.CreateRecordParams{
		ZoneID: "zone-1", Type: "CNAME", Name: "www.example.com", Content: "ingress.quimera.app", Proxied: true,
	}).Return(nil)
	s.env.OnActivity("CreateRecord", mock.Anything, activity.CreateRecordParams{
		ZoneID: "zone-1", Type: "TXT", Name: "_verify.example.com", Content: "quimera-verify=tok",
	}).Return(nil)
	s.env.OnActivity("EnableStrictTLS", mock.Anything, activity.EnableStrictTLSParams{
		ZoneID: "zone-1",
	}).Return(&activity.EnableStrictTLSResult{}, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderUpdatingNameservers,
	}).Return(nil)
	s.env.OnActivity("SetNameservers", mock.Anything, activity.SetNameserversParams{
		Domain: "example.com", Nameservers: []string{"ns1.edge.test", "ns2.edge.test"},
	}).Return(nil)
	s.env.OnActivity("CompleteOrder", mock.Anything, "order-1").Return(nil)
	s.env.OnActivity("AdvanceDomainStatus", mock.Anything, activity.AdvanceDomainStatusParams{
		DomainID: "dom-1", From: model.StatusPending, To: model.StatusActive,
	}).Return(nil)
	s.env.OnActivity("MarkDomainVerified", mock.Anything, activity.MarkDomainVerifiedParams{
		DomainID: "dom-1",
	}).Return(nil)
	s.env.OnActivity("UpsertRouteMapping", mock.Anything, activity.UpsertRouteMappingParams{
		Domain: "example.com", ProjectID: "proj-1", OwnerID: "owner-1",
	}).Return(nil)
	s.env.OnActivity("RegisterHostname", mock.Anything, activity.RegisterHostnameParams{
		Hostname: "example.com",
	}).Return(nil)

	s.env.ExecuteWorkflow(ProvisionPurchasedDomainWorkflow, "order-1")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProvisionPurchasedDomainTestSuite) TestCompletedOrderIsNoop() {
	order := s.testOrder()
	order.Status = model.OrderCompleted

	s.env.OnActivity("GetOrderByID", mock.Anything, "order-1").Return(&order, nil)

	s.env.ExecuteWorkflow(ProvisionPurchasedDomainWorkflow, "order-1")

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProvisionPurchasedDomainTestSuite) TestPurchaseFails_FailsOrder() {
	order := s.testOrder()

	s.env.OnActivity("GetOrderByID", mock.Anything, "order-1").Return(&order, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderRegistering,
	}).Return(nil)
	s.env.OnActivity("PurchaseDomain", mock.Anything, activity.PurchaseDomainParams{
		Domain: "example.com", TermYears: 1,
	}).Return(nil, fmt.Errorf("insufficient reseller balance"))
	s.env.OnActivity("FailOrder", mock.Anything, matchFailedOrder("order-1")).Return(nil)

	s.env.ExecuteWorkflow(ProvisionPurchasedDomainWorkflow, "order-1")

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *ProvisionPurchasedDomainTestSuite) TestZoneFails_FailsOrderAndDomain() {
	order := s.testOrder()
	domain := s.testDomain()
	ref := "reg-7"

	s.env.OnActivity("GetOrderByID", mock.Anything, "order-1").Return(&order, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderRegistering,
	}).Return(nil)
	s.env.OnActivity("PurchaseDomain", mock.Anything, activity.PurchaseDomainParams{
		Domain: "example.com", TermYears: 1,
	}).Return(&activity.PurchaseDomainResult{RegistrarRef: "reg-7"}, nil)
	s.env.OnActivity("CreateDomainForOrder", mock.Anything, activity.CreateDomainForOrderParams{
		OrderID: "order-1",
	}).Return(&domain, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderConfiguringDNS, RegistrarRef: &ref,
	}).Return(nil)
	s.env.OnActivity("GetIngressConfig", mock.Anything).Return(&testIngress, nil)
	s.env.OnActivity("EnsureZone", mock.Anything, activity.EnsureZoneParams{
		Domain: "example.com",
	}).Return(nil, fmt.Errorf("provider unreachable"))
	s.env.OnActivity("SetDomainError", mock.Anything, matchDomainError("dom-1")).Return(nil)
	s.env.OnActivity("FailOrder", mock.Anything, matchFailedOrder("order-1")).Return(nil)

	s.env.ExecuteWorkflow(ProvisionPurchasedDomainWorkflow, "order-1")

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *ProvisionPurchasedDomainTestSuite) TestNameserverPushFailureIsNonCritical() {
	order := s.testOrder()
	domain := s.testDomain()
	ref := "reg-7"

	s.env.OnActivity("GetOrderByID", mock.Anything, "order-1").Return(&order, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderRegistering,
	}).Return(nil)
	s.env.OnActivity("PurchaseDomain", mock.Anything, mock.Anything).
		Return(&activity.PurchaseDomainResult{RegistrarRef: "reg-7"}, nil)
	s.env.OnActivity("CreateDomainForOrder", mock.Anything, mock.Anything).Return(&domain, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderConfiguringDNS, RegistrarRef: &ref,
	}).Return(nil)
	s.env.OnActivity("GetIngressConfig", mock.Anything).Return(&testIngress, nil)
	s.env.OnActivity("EnsureZone", mock.Anything, mock.Anything).Return(&activity.EnsureZoneResult{
		ZoneID: "zone-1", Nameservers: []string{"ns1.edge.test"},
	}, nil)
	s.env.OnActivity("SetDomainZone", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("RemoveConflictingRootRecords", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("CreateRecord", mock.Anything, mock.Anything).Return(nil).Times(3)
	s.env.OnActivity("EnableStrictTLS", mock.Anything, mock.Anything).
		Return(&activity.EnableStrictTLSResult{Failures: []string{"set ssl=strict: denied"}}, nil)
	s.env.OnActivity("SetOrderStep", mock.Anything, activity.SetOrderStepParams{
		OrderID: "order-1", Step: model.OrderUpdatingNameservers,
	}).Return(nil)
	s.env.OnActivity("SetNameservers", mock.Anything, mock.Anything).
		Return(fmt.Errorf("registrar timeout"))
	s.env.OnActivity("CompleteOrder", mock.Anything, "order-1").Return(nil)
	s.env.OnActivity("AdvanceDomainStatus", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("MarkDomainVerified", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("UpsertRouteMapping", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("RegisterHostname", mock.Anything, mock.Anything).Return(nil)

	s.env.ExecuteWorkflow(ProvisionPurchasedDomainWorkflow, "order-1")

	// Degraded but completed: the cron converges the delegation later.
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func TestProvisionPurchasedDomainTestSuite(t *testing.T) {
	suite.Run(t, new(ProvisionPurchasedDomainTestSuite))
}
