package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/quimera/domains/internal/dnscheck"
	"github.com/quimera/domains/internal/model"
	"github.com/quimera/domains/internal/provider/dnsedge"
	"github.com/quimera/domains/internal/provider/registrar"
)

// ---------- Stub resolver ----------

// stubResolver implements DNSResolver, recording the names it was asked to
// resolve and returning a canned record state.
type stubResolver struct {
	domain    string
	cnameName string
	txtName   string
	state     *dnscheck.RecordState
}

func (r *stubResolver) Lookup(_ context.Context, domain, cnameName, txtName string) *dnscheck.RecordState {
	r.domain = domain
	r.cnameName = cnameName
	r.txtName = txtName
	if r.state != nil {
		return r.state
	}
	return &dnscheck.RecordState{Domain: domain}
}

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// insertedTag is a command tag reporting one affected row.
var insertedTag = pgconn.NewCommandTag("INSERT 0 1")

// noRowsTag is a command tag reporting zero affected rows, the signature of
// a lost uniqueness race.
var noRowsTag = pgconn.NewCommandTag("INSERT 0 0")

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

// ---------- Mock provider clients ----------

// mockRegistrar implements registrar.API for testing.
type mockRegistrar struct {
	mock.Mock
}

func (m *mockRegistrar) CheckAvailability(ctx context.Context, names []string) ([]registrar.AvailabilityResult, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registrar.AvailabilityResult), args.Error(1)
}

func (m *mockRegistrar) Purchase(ctx context.Context, name string, years int, contact model.RegistrantContact) (string, error) {
	args := m.Called(ctx, name, years, contact)
	return args.String(0), args.Error(1)
}

func (m *mockRegistrar) SetNameservers(ctx context.Context, name string, nameservers []string) error {
	args := m.Called(ctx, name, nameservers)
	return args.Error(0)
}

// mockEdge implements dnsedge.API for testing.
type mockEdge struct {
	mock.Mock
}

func (m *mockEdge) CreateZone(ctx context.Context, name string) (*dnsedge.Zone, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dnsedge.Zone), args.Error(1)
}

func (m *mockEdge) GetZoneByName(ctx context.Context, name string) (*dnsedge.Zone, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dnsedge.Zone), args.Error(1)
}

func (m *mockEdge) ZoneStatus(ctx context.Context, zoneID string) (string, error) {
	args := m.Called(ctx, zoneID)
	return args.String(0), args.Error(1)
}

func (m *mockEdge) ListRecords(ctx context.Context, zoneID, recordType, name string) ([]dnsedge.Record, error) {
	args := m.Called(ctx, zoneID, recordType, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dnsedge.Record), args.Error(1)
}

func (m *mockEdge) CreateRecord(ctx context.Context, zoneID string, record dnsedge.Record) error {
	args := m.Called(ctx, zoneID, record)
	return args.Error(0)
}

func (m *mockEdge) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	args := m.Called(ctx, zoneID, recordID)
	return args.Error(0)
}

func (m *mockEdge) EnableStrictTLS(ctx context.Context, zoneID string) []error {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]error)
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }
