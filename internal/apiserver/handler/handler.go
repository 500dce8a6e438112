// Package handler contains the gin handlers of the API server: the
// backoffice endpoints used by plant employees and the read-only
// portal served to client companies.
package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/apiserver/middleware"
	"github.com/inspectrack/inspectrack/internal/inspection"
	"github.com/inspectrack/inspectrack/internal/notifier"
	"github.com/inspectrack/inspectrack/internal/quality"
	"github.com/inspectrack/inspectrack/pkg/metrics"
	"go.uber.org/zap"
)

// actorFrom resolves the policy actor for the authenticated employee.
func actorFrom(c *gin.Context) (inspection.Actor, *database.User, bool) {
	user, ok := middleware.GetUser(c)
	if !ok {
		return inspection.Actor{}, nil, false
	}
	return inspection.Actor{UserID: user.ID, Role: user.Role}, user, true
}

// Publisher fans events out to the notifier. Publish failures are
// logged and counted but never surfaced to the request that caused
// them; consumers recover through their periodic refresh.
type Publisher struct {
	logger  *zap.Logger
	ntf     notifier.Notifier
	metrics *metrics.Metrics
}

// NewPublisher creates the event publisher handlers share.
func NewPublisher(logger *zap.Logger, ntf notifier.Notifier, m *metrics.Metrics) *Publisher {
	return &Publisher{logger: logger.Named("apiserver.events"), ntf: ntf, metrics: m}
}

func (p *Publisher) send(ctx context.Context, channel string, evt *notifier.Event, buildErr error) {
	if buildErr != nil {
		p.logger.Error("failed to build event", zap.Error(buildErr))
		return
	}
	if err := p.ntf.Publish(ctx, channel, evt); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("channel", channel),
			zap.String("type", evt.Type),
			zap.Error(err))
		return
	}
	p.metrics.EventPublished(evt.Type)
}

// inspectionUpdated notifies backoffice dashboards that an open
// inspection changed.
func (p *Publisher) inspectionUpdated(ctx context.Context, insp *database.Inspection) {
	evt, err := notifier.InspectionUpdated(insp)
	p.send(ctx, notifier.CompanyChannel(insp.CompanyID), evt, err)
}

// inspectionCompleted sends the full snapshot to the backoffice channel
// and the light closed event to portal viewers.
func (p *Publisher) inspectionCompleted(ctx context.Context, insp *database.Inspection) {
	evt, err := notifier.InspectionCompleted(insp)
	p.send(ctx, notifier.CompanyChannel(insp.CompanyID), evt, err)

	closed, err := notifier.InspectionClosed(insp)
	p.send(ctx, notifier.PortalChannel(insp.CompanyID), closed, err)

	p.metrics.InspectionCompleted(insp.CompanyID)
}

// qualityAlert raises a per-part alert on both audiences' channels.
func (p *Publisher) qualityAlert(ctx context.Context, companyID uint, alert notifier.PartAlert) {
	evt, err := notifier.QualityAlertTriggered(companyID, alert)
	p.send(ctx, notifier.CompanyChannel(companyID), evt, err)

	portalEvt, err := notifier.QualityAlertTriggered(companyID, alert)
	p.send(ctx, notifier.PortalChannel(companyID), portalEvt, err)

	p.metrics.AlertTriggered(alert.Severity, quality.AlertTypePart)
}
