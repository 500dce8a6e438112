package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"github.com/inspectrack/inspectrack/internal/quality"
	"go.uber.org/zap"
)

// trendWindowDays is the length of the daily quality series shown on
// dashboards.
const trendWindowDays = 30

// KpiWindows holds the same KPI block computed over the three
// dashboard periods, each ending today.
type KpiWindows struct {
	Today quality.Metrics `json:"today"`
	Week  quality.Metrics `json:"week"`
	Month quality.Metrics `json:"month"`
}

// DashboardPayload is the quality summary shared by the backoffice and
// portal dashboards.
type DashboardPayload struct {
	PeriodFrom   string                         `json:"period_from"`
	PeriodTo     string                         `json:"period_to"`
	Kpis         KpiWindows                     `json:"kpis"`
	Alerts       []quality.Alert                `json:"alerts"`
	LotsAtRisk   int                            `json:"lots_at_risk"`
	TopOffenders map[string]quality.TopOffender `json:"top_offenders"`
	TrendDays    []quality.TrendDay             `json:"trend_days"`
	Trend        string                         `json:"trend"`
}

// buildDashboard assembles the today/week/month KPI windows, the
// month-to-date alerts and the 30-day trend for whatever tenant scope
// rides on ctx. Weeks start on Monday.
func buildDashboard(ctx context.Context, db database.Database, thresholds quality.Thresholds, now time.Time) (*DashboardPayload, error) {
	monthStart := now.Format("2006-01") + "-01"
	weekStart := now.AddDate(0, 0, -int((now.Weekday()+6)%7)).Format("2006-01-02")
	today := now.Format("2006-01-02")

	good, defects, err := db.RangeTotals(ctx, monthStart, today)
	if err != nil {
		return nil, err
	}
	weekGood, weekDefects, err := db.RangeTotals(ctx, weekStart, today)
	if err != nil {
		return nil, err
	}
	dayGood, dayDefects, err := db.RangeTotals(ctx, today, today)
	if err != nil {
		return nil, err
	}

	partRows, err := db.DimensionTotals(ctx, database.DimPart, monthStart, today)
	if err != nil {
		return nil, err
	}
	lotRows, err := db.DimensionTotals(ctx, database.DimLot, monthStart, today)
	if err != nil {
		return nil, err
	}
	shiftRows, err := db.DimensionTotals(ctx, database.DimShift, monthStart, today)
	if err != nil {
		return nil, err
	}
	areaRows, err := db.DimensionTotals(ctx, database.DimArea, monthStart, today)
	if err != nil {
		return nil, err
	}

	alertInputs := make([]quality.AlertInput, 0, len(partRows)+len(lotRows))
	for _, r := range partRows {
		alertInputs = append(alertInputs, quality.AlertInput{
			Type: quality.AlertTypePart, Identifier: r.Key, Defects: r.Defects, Total: r.Good + r.Defects,
		})
	}
	lotInputs := make([]quality.AlertInput, 0, len(lotRows))
	for _, r := range lotRows {
		in := quality.AlertInput{
			Type: quality.AlertTypeLot, Identifier: r.Key, Defects: r.Defects, Total: r.Good + r.Defects,
		}
		alertInputs = append(alertInputs, in)
		lotInputs = append(lotInputs, in)
	}

	offenders := make(map[string]quality.TopOffender, 4)
	for dim, rows := range map[string][]database.AggregateRow{
		quality.AlertTypePart:  partRows,
		quality.AlertTypeLot:   lotRows,
		quality.AlertTypeShift: shiftRows,
		quality.AlertTypeArea:  areaRows,
	} {
		candidates := make([]quality.OffenderRow, 0, len(rows))
		for _, r := range rows {
			candidates = append(candidates, quality.OffenderRow{Identifier: r.Key, Defects: r.Defects, Total: r.Good + r.Defects})
		}
		if top, ok := quality.PickTopOffender(candidates, defects); ok {
			offenders[dim] = top
		}
	}

	trendDays, fpySeries, err := buildTrend(ctx, db, now)
	if err != nil {
		return nil, err
	}

	return &DashboardPayload{
		PeriodFrom:   monthStart,
		PeriodTo:     today,
		Kpis: KpiWindows{
			Today: quality.Compute(dayGood, dayDefects),
			Week:  quality.Compute(weekGood, weekDefects),
			Month: quality.Compute(good, defects),
		},
		Alerts:       quality.DeriveAlerts(alertInputs, thresholds, now),
		LotsAtRisk:   quality.CountLotsAtRisk(lotInputs, thresholds),
		TopOffenders: offenders,
		TrendDays:    trendDays,
		Trend:        quality.ComputeDirection(fpySeries),
	}, nil
}

// buildTrend expands the sparse daily rows into a dense 30-day series.
// Days without inspections keep nil metrics so the direction heuristic
// can skip them.
func buildTrend(ctx context.Context, db database.Database, now time.Time) ([]quality.TrendDay, []*float64, error) {
	from := now.AddDate(0, 0, -(trendWindowDays - 1))
	rows, err := db.DailySeries(ctx, from.Format("2006-01-02"), now.Format("2006-01-02"))
	if err != nil {
		return nil, nil, err
	}

	byDate := make(map[string]database.DailyRow, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	days := make([]quality.TrendDay, 0, trendWindowDays)
	series := make([]*float64, 0, trendWindowDays)
	for d := 0; d < trendWindowDays; d++ {
		date := from.AddDate(0, 0, d).Format("2006-01-02")
		day := quality.TrendDay{Date: date}
		if r, ok := byDate[date]; ok {
			day.Metrics = quality.Compute(r.Good, r.Defects)
		}
		days = append(days, day)
		series = append(series, day.Metrics.FirstPassYield)
	}
	return days, series, nil
}

// Dashboard serves the backoffice overview.
type Dashboard struct {
	db         database.Database
	thresholds quality.Thresholds
	logger     *zap.Logger
}

// NewDashboard creates the backoffice dashboard handler.
func NewDashboard(db database.Database, thresholds quality.Thresholds, logger *zap.Logger) *Dashboard {
	return &Dashboard{db: db, thresholds: thresholds, logger: logger.Named("apiserver.handler.dashboard")}
}

// Get returns operational stats plus the quality summary. Passing
// company_id narrows everything to that client company.
func (h *Dashboard) Get(c *gin.Context) {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	scopeFromQuery(c)
	ctx := c.Request.Context()
	now := time.Now()
	today := now.Format("2006-01-02")

	inspectorID := uint(0)
	if actor.IsRestrictedEditor() {
		inspectorID = actor.UserID
	}

	_, total, err := h.db.ListInspections(ctx, database.InspectionFilter{PageSize: 1, InspectorID: inspectorID})
	if err != nil {
		h.logger.Error("failed to count inspections", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	_, active, err := h.db.ListInspections(ctx, database.InspectionFilter{Status: database.StatusInProgress, PageSize: 1, InspectorID: inspectorID})
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	_, completedToday, err := h.db.ListInspections(ctx, database.InspectionFilter{
		Status: database.StatusCompleted, DateFrom: today, DateTo: today, PageSize: 1, InspectorID: inspectorID,
	})
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	payload, err := buildDashboard(ctx, h.db, h.thresholds, now)
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	recent, err := h.db.RecentInspections(ctx, 10)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_inspections": total,
			"in_progress":       active,
			"completed_today":   completedToday,
		},
		"dashboard": payload,
		"recent":    recent,
	})
}
