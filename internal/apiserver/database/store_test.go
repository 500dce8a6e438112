package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/inspectrack/inspectrack/internal/common/config"
	"github.com/inspectrack/inspectrack/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func futureTime() time.Time {
	return time.Now().Add(15 * time.Minute)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"}
	dbi, err := NewSQLite(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbi.Close() })
	return dbi.(*Store)
}

// adminCtx sees every company.
func adminCtx() context.Context {
	return tenant.WithScope(context.Background(), tenant.AllCompanies())
}

// companyCtx sees a single company.
func companyCtx(id uint) context.Context {
	return tenant.WithScope(context.Background(), tenant.Company(id))
}

func seedCompany(t *testing.T, s *Store, name, code string) *Company {
	t.Helper()
	c := &Company{Name: name, Code: code, Status: CompanyActive}
	require.NoError(t, s.CreateCompany(adminCtx(), c))
	return c
}

func TestCompanyScoping(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	globex := seedCompany(t, s, "Globex", "globex")

	// Wildcard sees both
	all, err := s.ListCompanies(adminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Single-company scope sees only itself
	mine, err := s.ListCompanies(companyCtx(acme.ID))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Acme", mine[0].Name)

	// Cross-company read fails with not found, not forbidden leakage
	_, err = s.GetCompanyByID(companyCtx(acme.ID), globex.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Missing scope fails closed
	none, err := s.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCompanyUpdateOutOfScope(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	globex := seedCompany(t, s, "Globex", "globex")

	globex.Name = "Hijacked"
	err := s.UpdateCompany(companyCtx(acme.ID), globex)
	assert.ErrorIs(t, err, ErrScopeDenied)
}

func TestUserCRUDAndLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := adminCtx()

	u := &User{Name: "Ana", Email: "ana@plant.mx", Password: "hash", Role: RoleSupervisor}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByEmail(ctx, "ana@plant.mx")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Nil(t, got.LastLoginAt)

	require.NoError(t, s.TouchLastLogin(ctx, u.ID))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)
}

func newInspection(companyID uint, date string) *Inspection {
	return &Inspection{
		CompanyID: companyID,
		Date:      date,
		Shift:     "Matutino",
		AreaLine:  "Linea 1",
		Status:    StatusPending,
		Parts: []InspectionPart{
			{
				PartNumber: "P-100",
				Items: []InspectionItem{
					{SerialNumber: "SN-1", LotCode: "L-1", GoodQty: 8, DefectQty: 2},
				},
			},
		},
	}
}

func TestCreateInspectionAssignsSequentialCodes(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := companyCtx(acme.ID)

	codes := make(map[string]bool)
	for i := 0; i < 3; i++ {
		insp := newInspection(acme.ID, "2026-03-15")
		require.NoError(t, s.CreateInspection(ctx, insp))
		codes[insp.ReferenceCode] = true
	}
	assert.Len(t, codes, 3)
	assert.True(t, codes["INS-20260315-0001"])
	assert.True(t, codes["INS-20260315-0003"])

	// Other days restart the sequence
	other := newInspection(acme.ID, "2026-03-16")
	require.NoError(t, s.CreateInspection(ctx, other))
	assert.Equal(t, "INS-20260316-0001", other.ReferenceCode)
}

func TestReferenceCodeCountsSoftDeleted(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := companyCtx(acme.ID)

	first := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(ctx, first))
	require.NoError(t, s.DeleteInspection(ctx, first.ID))

	second := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(ctx, second))
	assert.Equal(t, "INS-20260315-0002", second.ReferenceCode)
}

func TestReferenceCodePerCompany(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	globex := seedCompany(t, s, "Globex", "globex")

	a := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(companyCtx(acme.ID), a))
	g := newInspection(globex.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(companyCtx(globex.ID), g))

	// Companies do not share a sequence
	assert.Equal(t, "INS-20260315-0001", a.ReferenceCode)
	assert.Equal(t, "INS-20260315-0001", g.ReferenceCode)
}

func TestCreateInspectionOutOfScope(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	globex := seedCompany(t, s, "Globex", "globex")

	insp := newInspection(globex.ID, "2026-03-15")
	err := s.CreateInspection(companyCtx(acme.ID), insp)
	assert.ErrorIs(t, err, ErrScopeDenied)
}

func TestGetInspectionPreloadsAndIsolates(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	globex := seedCompany(t, s, "Globex", "globex")

	insp := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(companyCtx(acme.ID), insp))

	got, err := s.GetInspectionByID(companyCtx(acme.ID), insp.ID)
	require.NoError(t, err)
	require.Len(t, got.Parts, 1)
	require.Len(t, got.Parts[0].Items, 1)
	assert.Equal(t, acme.ID, got.Parts[0].CompanyID)
	assert.Equal(t, acme.ID, got.Parts[0].Items[0].CompanyID)

	// The other tenant cannot see it
	_, err = s.GetInspectionByID(companyCtx(globex.ID), insp.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListInspectionsFilters(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := companyCtx(acme.ID)

	a := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(ctx, a))
	b := newInspection(acme.ID, "2026-03-16")
	b.Shift = "Nocturno"
	b.Project = "Dash-8"
	require.NoError(t, s.CreateInspection(ctx, b))
	b.Status = StatusInProgress
	require.NoError(t, s.UpdateInspection(ctx, b))

	rows, total, err := s.ListInspections(ctx, InspectionFilter{Status: StatusInProgress})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].ID)

	rows, _, err = s.ListInspections(ctx, InspectionFilter{Shift: "Nocturno"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, _, err = s.ListInspections(ctx, InspectionFilter{DateFrom: "2026-03-16"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, _, err = s.ListInspections(ctx, InspectionFilter{Project: "Dash-8"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].ID)

	rows, _, err = s.ListInspections(ctx, InspectionFilter{Search: a.ReferenceCode})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreateInspectionConcurrentUniqueCodes(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")

	const n = 8
	codes := make(chan string, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			insp := newInspection(acme.ID, "2026-03-15")
			if err := s.CreateInspection(companyCtx(acme.ID), insp); err != nil {
				errs <- err
				return
			}
			codes <- insp.ReferenceCode
		}()
	}
	wg.Wait()
	close(codes)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	unique := make(map[string]bool, n)
	for code := range codes {
		unique[code] = true
	}
	// Racing creators never share a daily sequence slot
	assert.Len(t, unique, n)
}

func TestItemCaptureAndCascade(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := companyCtx(acme.ID)

	insp := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(ctx, insp))
	partID := insp.Parts[0].ID
	firstItem := insp.Parts[0].Items[0].ID

	second := &InspectionItem{CompanyID: acme.ID, PartID: partID, SerialNumber: "SN-2", GoodQty: 5}
	require.NoError(t, s.CreateItem(ctx, second))

	// Deleting one of two items keeps the part
	require.NoError(t, s.DeleteItem(ctx, firstItem))
	part, err := s.GetPartByID(ctx, partID)
	require.NoError(t, err)
	assert.Len(t, part.Items, 1)

	// Deleting the last item removes the empty part
	require.NoError(t, s.DeleteItem(ctx, second.ID))
	_, err = s.GetPartByID(ctx, partID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMagicLinkConsumeOnce(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := adminCtx()

	link := &MagicLink{CompanyID: acme.ID, Email: "viewer@acme.mx", JTI: "jti-1", ExpiresAt: futureTime()}
	require.NoError(t, s.CreateMagicLink(ctx, link))

	require.NoError(t, s.ConsumeMagicLink(ctx, "jti-1"))
	assert.ErrorIs(t, s.ConsumeMagicLink(ctx, "jti-1"), ErrMagicLinkConsumed)
	assert.ErrorIs(t, s.ConsumeMagicLink(ctx, "jti-missing"), gorm.ErrRecordNotFound)
}

func TestAggregates(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	globex := seedCompany(t, s, "Globex", "globex")
	ctx := companyCtx(acme.ID)

	a := &Inspection{
		CompanyID: acme.ID, Date: "2026-03-10", Shift: "Matutino", AreaLine: "Linea 1",
		Parts: []InspectionPart{
			{PartNumber: "P-100", Items: []InspectionItem{
				{LotCode: "L-1", GoodQty: 90, DefectQty: 10},
			}},
			{PartNumber: "P-200", Items: []InspectionItem{
				{LotCode: "L-2", GoodQty: 50, DefectQty: 2},
			}},
		},
	}
	require.NoError(t, s.CreateInspection(ctx, a))

	b := newInspection(acme.ID, "2026-03-12")
	require.NoError(t, s.CreateInspection(ctx, b))

	// Another tenant's rows must never leak into the sums
	foreign := newInspection(globex.ID, "2026-03-10")
	require.NoError(t, s.CreateInspection(companyCtx(globex.ID), foreign))

	good, defects, err := s.RangeTotals(ctx, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, 148, good)
	assert.Equal(t, 14, defects)

	parts, err := s.DimensionTotals(ctx, DimPart, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "P-100", parts[0].Key)
	assert.Equal(t, 12, parts[0].Defects)

	lots, err := s.DimensionTotals(ctx, DimLot, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Len(t, lots, 3)

	days, err := s.DailySeries(ctx, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-03-10", days[0].Date)
	assert.Equal(t, 12, days[0].Defects)

	recent, err := s.RecentInspections(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestAggregatesExcludeSoftDeleted(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := companyCtx(acme.ID)

	insp := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(ctx, insp))
	require.NoError(t, s.DeleteInspection(ctx, insp.ID))

	good, defects, err := s.RangeTotals(ctx, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Zero(t, good)
	assert.Zero(t, defects)
}

func TestDimensionTotalsUnknownDimension(t *testing.T) {
	s := newTestStore(t)
	_, err := s.DimensionTotals(adminCtx(), "color", "2026-03-01", "2026-03-31")
	assert.Error(t, err)
}

func TestTransactionRollsBackAtomically(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := companyCtx(acme.ID)

	boom := fmt.Errorf("boom")
	err := s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.CreateInspection(ctx, newInspection(acme.ID, "2026-03-15")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, total, err := s.ListInspections(ctx, InspectionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestReplaceInspectors(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := companyCtx(acme.ID)

	u1 := &User{Name: "Ana", Email: "ana@plant.mx", Password: "h", Role: RoleInspector}
	u2 := &User{Name: "Luis", Email: "luis@plant.mx", Password: "h", Role: RoleInspector}
	require.NoError(t, s.CreateUser(adminCtx(), u1))
	require.NoError(t, s.CreateUser(adminCtx(), u2))

	insp := newInspection(acme.ID, "2026-03-15")
	require.NoError(t, s.CreateInspection(ctx, insp))

	require.NoError(t, s.ReplaceInspectors(ctx, insp.ID, []uint{u1.ID, u2.ID}))
	got, err := s.GetInspectionByID(ctx, insp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Inspectors, 2)

	require.NoError(t, s.ReplaceInspectors(ctx, insp.ID, []uint{u2.ID}))
	got, err = s.GetInspectionByID(ctx, insp.ID)
	require.NoError(t, err)
	require.Len(t, got.Inspectors, 1)
	assert.Equal(t, u2.ID, got.Inspectors[0].ID)
}

func TestReplaceUserCompanies(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	globex := seedCompany(t, s, "Globex", "globex")
	ctx := adminCtx()

	u := &User{Name: "Ana", Email: "ana@plant.mx", Password: "h", Role: RoleSupervisor}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CompanyIDs())

	require.NoError(t, s.ReplaceUserCompanies(ctx, u.ID, []uint{acme.ID, globex.ID}))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{acme.ID, globex.ID}, got.CompanyIDs())

	require.NoError(t, s.ReplaceUserCompanies(ctx, u.ID, []uint{globex.ID}))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{globex.ID}, got.CompanyIDs())

	// Saving the profile must not disturb the assignments
	got.Name = "Ana Maria"
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{globex.ID}, got.CompanyIDs())
}

func TestFindOrCreateViewer(t *testing.T) {
	s := newTestStore(t)
	acme := seedCompany(t, s, "Acme", "acme")
	ctx := adminCtx()

	v1, err := s.FindOrCreateViewer(ctx, acme.ID, "viewer@acme.mx")
	require.NoError(t, err)
	assert.Nil(t, v1.LastLoginAt)

	// A repeat request reuses the row
	v2, err := s.FindOrCreateViewer(ctx, acme.ID, "viewer@acme.mx")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, v2.ID)

	require.NoError(t, s.TouchViewerLogin(ctx, acme.ID, "viewer@acme.mx"))
	v3, err := s.FindOrCreateViewer(ctx, acme.ID, "viewer@acme.mx")
	require.NoError(t, err)
	assert.NotNil(t, v3.LastLoginAt)
}
