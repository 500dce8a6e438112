package quality

import (
	"fmt"
	"sort"
	"time"
)

// Alert dimension types. Only part and lot rows raise alerts; shift
// and area feed the top-offender ranking.
const (
	AlertTypePart  = "part"
	AlertTypeLot   = "lot"
	AlertTypeShift = "shift"
	AlertTypeArea  = "area"
)

// MaxDashboardAlerts caps how many alerts a dashboard shows at once.
const MaxDashboardAlerts = 10

// AlertInput is one aggregated current-month row considered for alerting.
type AlertInput struct {
	Type       string
	Identifier string
	Defects    int
	Total      int
}

// Alert is a triggered quality alert ready for display.
type Alert struct {
	Type               string    `json:"type"`
	Severity           string    `json:"severity"`
	Identifier         string    `json:"identifier"`
	DefectRate         float64   `json:"defect_rate"`
	PPM                int       `json:"ppm"`
	Defects            int       `json:"defects"`
	Total              int       `json:"total"`
	Message            string    `json:"message"`
	RecommendedActions []string  `json:"recommended_actions"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}

// DeriveAlerts evaluates the aggregated rows against the thresholds and
// returns the triggered alerts, critical first, capped at
// MaxDashboardAlerts. The defect rate is consulted first and PPM only
// when the rate alone raised nothing.
func DeriveAlerts(rows []AlertInput, t Thresholds, now time.Time) []Alert {
	alerts := make([]Alert, 0, len(rows))
	for _, row := range rows {
		if row.Total == 0 {
			continue
		}
		rate := Round(float64(row.Defects)/float64(row.Total)*100, 1)
		ppm := int(Round(float64(row.Defects)/float64(row.Total)*1_000_000, 0))

		severity := t.SeverityForRate(rate)
		if severity == "" {
			severity = t.SeverityForPPM(ppm)
		}
		if severity == "" {
			continue
		}

		alerts = append(alerts, Alert{
			Type:               row.Type,
			Severity:           severity,
			Identifier:         row.Identifier,
			DefectRate:         rate,
			PPM:                ppm,
			Defects:            row.Defects,
			Total:              row.Total,
			Message:            alertMessage(severity, row.Type, row.Identifier, rate),
			RecommendedActions: RecommendedActions(severity, row.Type),
			EvaluatedAt:        now,
		})
	}

	// Stable so rows of equal severity keep their input order.
	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
	})

	if len(alerts) > MaxDashboardAlerts {
		alerts = alerts[:MaxDashboardAlerts]
	}
	return alerts
}

// CountLotsAtRisk counts the distinct lots whose monthly defect rate
// exceeds the at-risk threshold. Independent of the alert list.
func CountLotsAtRisk(rows []AlertInput, t Thresholds) int {
	count := 0
	for _, row := range rows {
		if row.Type != AlertTypeLot || row.Total == 0 {
			continue
		}
		rate := Round(float64(row.Defects)/float64(row.Total)*100, 1)
		if rate > t.LotAtRiskRate {
			count++
		}
	}
	return count
}

func severityRank(severity string) int {
	if severity == SeverityCritical {
		return 0
	}
	return 1
}

func typeLabel(alertType string) string {
	if alertType == AlertTypeLot {
		return "Lote"
	}
	return "Parte"
}

// AlertMessage formats the operator-facing alert text for an
// identifier's defect rate. Rate is expected pre-rounded to 1 decimal.
func AlertMessage(severity, alertType, identifier string, rate float64) string {
	return alertMessage(severity, alertType, identifier, rate)
}

func alertMessage(severity, alertType, identifier string, rate float64) string {
	if severity == SeverityCritical {
		return fmt.Sprintf("%s %s tiene %.1f%% de tasa de defectos", typeLabel(alertType), identifier, rate)
	}
	return fmt.Sprintf("%s %s con tasa de defectos en %.1f%%", typeLabel(alertType), identifier, rate)
}

// recommendedActions maps (severity, type) to the suggestions shown to
// plant supervisors. Messages are in Spanish to match the shop floor.
var recommendedActions = map[[2]string][]string{
	{SeverityCritical, AlertTypePart}: {
		"Contener producción inmediatamente",
		"Inspeccionar lotes recientes",
		"Revisar parámetros del proceso",
		"Notificar a ingeniería de calidad",
	},
	{SeverityCritical, AlertTypeLot}: {
		"Contener producción inmediatamente",
		"Poner en cuarentena el lote afectado",
		"Revisar lote del proveedor",
		"Iniciar análisis de causa raíz",
	},
	{SeverityWarning, AlertTypePart}: {
		"Monitorear de cerca",
		"Revisar últimos resultados de inspección",
	},
	{SeverityWarning, AlertTypeLot}: {
		"Monitorear de cerca",
		"Verificar trazabilidad del lote",
	},
}

var genericCriticalActions = []string{
	"Contener producción",
	"Revisar datos de inspección",
	"Escalar al gerente de calidad",
}

var genericWarningActions = []string{
	"Monitorear de cerca",
	"Revisar datos recientes",
}

// RecommendedActions returns the suggested responses for an alert.
func RecommendedActions(severity, alertType string) []string {
	if actions, ok := recommendedActions[[2]string{severity, alertType}]; ok {
		return actions
	}
	if severity == SeverityCritical {
		return genericCriticalActions
	}
	return genericWarningActions
}
