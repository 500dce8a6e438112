package notifier

import (
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/common/cnst"
	"github.com/inspectrack/inspectrack/internal/quality"
)

// InspectionRef is the light payload carried by update and close
// events. Consumers reload details themselves.
type InspectionRef struct {
	ID            uint   `json:"id"`
	ReferenceCode string `json:"reference_code"`
	Status        string `json:"status"`
	Date          string `json:"date"`
}

// PartAlert is the payload of a per-part quality alert raised on the
// event-driven path.
type PartAlert struct {
	InspectionID       uint            `json:"inspection_id"`
	PartNumber         string          `json:"part_number"`
	Severity           string          `json:"severity"`
	Metrics            quality.Metrics `json:"metrics"`
	Message            string          `json:"message"`
	RecommendedActions []string        `json:"recommended_actions"`
}

func ref(insp *database.Inspection) InspectionRef {
	return InspectionRef{
		ID:            insp.ID,
		ReferenceCode: insp.ReferenceCode,
		Status:        insp.Status,
		Date:          insp.Date,
	}
}

// InspectionUpdated builds the event emitted on every mutation while
// an inspection is open.
func InspectionUpdated(insp *database.Inspection) (*Event, error) {
	return NewEvent(cnst.EventInspectionUpdated, insp.CompanyID, ref(insp))
}

// InspectionCompleted builds the completion event. It carries the full
// nested snapshot so downstream consumers need no follow-up read.
func InspectionCompleted(insp *database.Inspection) (*Event, error) {
	return NewEvent(cnst.EventInspectionCompleted, insp.CompanyID, insp)
}

// InspectionClosed builds the light event sent to portal viewers when
// an inspection finishes.
func InspectionClosed(insp *database.Inspection) (*Event, error) {
	return NewEvent(cnst.EventInspectionClosed, insp.CompanyID, ref(insp))
}

// QualityAlertTriggered builds a per-part alert event.
func QualityAlertTriggered(companyID uint, alert PartAlert) (*Event, error) {
	return NewEvent(cnst.EventQualityAlertTriggered, companyID, alert)
}
