package quality

import "github.com/inspectrack/inspectrack/internal/common/config"

// Severity levels, ordered by urgency.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Thresholds holds the limits at which defect levels raise alerts.
type Thresholds struct {
	CriticalDefectRate float64
	WarningDefectRate  float64
	CriticalPPM        int
	WarningPPM         int
	LotAtRiskRate      float64
}

// DefaultThresholds returns the factory alerting limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalDefectRate: 10.0,
		WarningDefectRate:  5.0,
		CriticalPPM:        10000,
		WarningPPM:         5000,
		LotAtRiskRate:      8.0,
	}
}

// ThresholdsFromConfig merges configured overrides over the defaults.
// Zero values keep the default.
func ThresholdsFromConfig(cfg config.QualityConfig) Thresholds {
	t := DefaultThresholds()
	if cfg.CriticalDefectRate > 0 {
		t.CriticalDefectRate = cfg.CriticalDefectRate
	}
	if cfg.WarningDefectRate > 0 {
		t.WarningDefectRate = cfg.WarningDefectRate
	}
	if cfg.CriticalPPM > 0 {
		t.CriticalPPM = cfg.CriticalPPM
	}
	if cfg.WarningPPM > 0 {
		t.WarningPPM = cfg.WarningPPM
	}
	if cfg.LotAtRiskRate > 0 {
		t.LotAtRiskRate = cfg.LotAtRiskRate
	}
	return t
}

// SeverityForRate classifies a defect rate percentage. Thresholds are
// exclusive: a rate sitting exactly on a limit stays in the band below.
func (t Thresholds) SeverityForRate(rate float64) string {
	switch {
	case rate > t.CriticalDefectRate:
		return SeverityCritical
	case rate > t.WarningDefectRate:
		return SeverityWarning
	default:
		return ""
	}
}

// SeverityForPPM classifies a parts-per-million figure. Returns ""
// when at or below the warning threshold.
func (t Thresholds) SeverityForPPM(ppm int) string {
	switch {
	case ppm > t.CriticalPPM:
		return SeverityCritical
	case ppm > t.WarningPPM:
		return SeverityWarning
	default:
		return ""
	}
}

// PartSeverity classifies a single part's metrics for the realtime
// alert path. The defect rate is checked first; only when it stays
// below the warning threshold does the PPM figure get a say.
func (t Thresholds) PartSeverity(m Metrics) string {
	if m.DefectRate == nil || m.PPM == nil {
		return ""
	}
	if sev := t.SeverityForRate(*m.DefectRate); sev != "" {
		return sev
	}
	return t.SeverityForPPM(*m.PPM)
}
