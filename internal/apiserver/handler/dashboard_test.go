package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCompletedInspection loads one finished inspection with two part
// groups: P-1 at a 10% defect rate on lot L-1, P-2 at 5%.
func (e *testEnv) seedCompletedInspection(t *testing.T, companyID uint) *database.Inspection {
	t.Helper()
	insp := &database.Inspection{
		CompanyID: companyID,
		Date:      time.Now().Format("2006-01-02"),
		Shift:     "Matutino",
		AreaLine:  "Linea 1",
		Status:    database.StatusCompleted,
	}
	require.NoError(t, e.db.CreateInspection(e.adminCtx, insp))

	p1 := &database.InspectionPart{CompanyID: companyID, InspectionID: insp.ID, PartNumber: "P-1"}
	require.NoError(t, e.db.CreatePart(e.adminCtx, p1))
	require.NoError(t, e.db.CreateItem(e.adminCtx, &database.InspectionItem{
		CompanyID: companyID, PartID: p1.ID, LotCode: "L-1", GoodQty: 90, DefectQty: 10,
	}))

	p2 := &database.InspectionPart{CompanyID: companyID, InspectionID: insp.ID, PartNumber: "P-2"}
	require.NoError(t, e.db.CreatePart(e.adminCtx, p2))
	require.NoError(t, e.db.CreateItem(e.adminCtx, &database.InspectionItem{
		CompanyID: companyID, PartID: p2.ID, GoodQty: 95, DefectQty: 5,
	}))
	return insp
}

func TestDashboard(t *testing.T) {
	env := setupEnv(t)
	company := env.seedCompany(t, "Acme", "ACME")
	supervisor := env.seedUser(t, "Sup", "sup@acme.test", database.RoleSupervisor, "sup3rsecret", company)
	env.seedCompletedInspection(t, company.ID)

	w := env.request(t, http.MethodGet, "/api/dashboard", env.token(t, supervisor), nil)
	mustStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)

	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["total_inspections"])
	assert.Equal(t, float64(0), stats["in_progress"])
	assert.Equal(t, float64(1), stats["completed_today"])

	dash := body["dashboard"].(map[string]any)
	// The inspection is dated today, so all three windows carry it
	kpis := dash["kpis"].(map[string]any)
	for _, window := range []string{"today", "week", "month"} {
		k := kpis[window].(map[string]any)
		assert.Equal(t, float64(200), k["total"], window)
		assert.Equal(t, 7.5, k["defect_rate"], window)
		assert.Equal(t, 92.5, k["first_pass_yield"], window)
		assert.Equal(t, float64(75000), k["ppm"], window)
	}

	// P-1 at 10% and lot L-1 at 10% both exceed the 5% warning line;
	// P-2 at exactly 5% does not.
	alerts := dash["alerts"].([]any)
	require.Len(t, alerts, 2)
	identifiers := map[string]string{}
	for _, raw := range alerts {
		a := raw.(map[string]any)
		identifiers[a["type"].(string)] = a["identifier"].(string)
		assert.Equal(t, quality.SeverityWarning, a["severity"])
		assert.NotEmpty(t, a["message"])
		assert.NotEmpty(t, a["recommended_actions"])
	}
	assert.Equal(t, map[string]string{quality.AlertTypePart: "P-1", quality.AlertTypeLot: "L-1"}, identifiers)

	// L-1 at 10% is above the 8% at-risk line
	assert.Equal(t, float64(1), dash["lots_at_risk"])

	offenders := dash["top_offenders"].(map[string]any)
	worstPart := offenders[quality.AlertTypePart].(map[string]any)
	assert.Equal(t, "P-1", worstPart["identifier"])
	assert.Equal(t, float64(100), worstPart["total"])
	assert.Equal(t, 10.0, worstPart["defect_rate"])
	assert.Equal(t, "L-1", offenders[quality.AlertTypeLot].(map[string]any)["identifier"])
	assert.Equal(t, "Matutino", offenders[quality.AlertTypeShift].(map[string]any)["identifier"])
	assert.Equal(t, "Linea 1", offenders[quality.AlertTypeArea].(map[string]any)["identifier"])

	// One day of data cannot establish a direction
	assert.Equal(t, quality.TrendStable, dash["trend"])
	assert.Len(t, dash["trend_days"], 30)

	assert.Len(t, body["recent"], 1)
}

func TestDashboardScopedByCompanyQuery(t *testing.T) {
	env := setupEnv(t)
	acme := env.seedCompany(t, "Acme", "ACME")
	globex := env.seedCompany(t, "Globex", "GLOBEX")
	supervisor := env.seedUser(t, "Sup", "sup@acme.test", database.RoleSupervisor, "sup3rsecret", acme, globex)
	env.seedCompletedInspection(t, acme.ID)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/dashboard?company_id=%d", globex.ID), env.token(t, supervisor), nil)
	mustStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)

	kpis := body["dashboard"].(map[string]any)["kpis"].(map[string]any)
	month := kpis["month"].(map[string]any)
	assert.Equal(t, float64(0), month["total"])
	assert.Nil(t, month["defect_rate"])
	assert.Len(t, body["recent"], 0)
}

// Employees see only the companies they are assigned to; asking for
// another company narrows the scope to nothing instead of widening it.
func TestDashboardCannotWidenScope(t *testing.T) {
	env := setupEnv(t)
	acme := env.seedCompany(t, "Acme", "ACME")
	globex := env.seedCompany(t, "Globex", "GLOBEX")
	supervisor := env.seedUser(t, "Sup", "sup@acme.test", database.RoleSupervisor, "sup3rsecret", acme)
	env.seedCompletedInspection(t, globex.ID)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/dashboard?company_id=%d", globex.ID), env.token(t, supervisor), nil)
	mustStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)

	month := body["dashboard"].(map[string]any)["kpis"].(map[string]any)["month"].(map[string]any)
	assert.Equal(t, float64(0), month["total"])
	assert.Len(t, body["recent"], 0)
}
