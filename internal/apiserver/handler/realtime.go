package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/middleware"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"github.com/inspectrack/inspectrack/internal/notifier"
	"github.com/inspectrack/inspectrack/internal/tenant"
	"github.com/inspectrack/inspectrack/pkg/metrics"
	"go.uber.org/zap"
)

// SSE audiences, used as metric labels.
const (
	audienceCompany = "company"
	audiencePortal  = "portal"
)

// Realtime attaches SSE subscribers to the tenant event channels.
type Realtime struct {
	ntf     notifier.Notifier
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRealtime creates the realtime handler.
func NewRealtime(ntf notifier.Notifier, m *metrics.Metrics, logger *zap.Logger) *Realtime {
	return &Realtime{ntf: ntf, metrics: m, logger: logger.Named("apiserver.handler.realtime")}
}

// CompanyEvents streams a company's backoffice channel as SSE.
func (h *Realtime) CompanyEvents(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	scope := tenant.FromContext(c.Request.Context())
	if !scope.Allows(id) {
		i18n.RespondWithError(c, i18n.ErrForbidden)
		return
	}
	h.stream(c, notifier.CompanyChannel(id), audienceCompany)
}

// PortalEvents streams the viewer company's portal channel as SSE.
func (h *Realtime) PortalEvents(c *gin.Context) {
	company, ok := middleware.GetPortalCompany(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	h.stream(c, notifier.PortalChannel(company.ID), audiencePortal)
}

func (h *Realtime) stream(c *gin.Context, channel, audience string) {
	events, err := h.ntf.Subscribe(c.Request.Context(), channel)
	if err != nil {
		h.logger.Error("failed to subscribe", zap.String("channel", channel), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.metrics.SubscriberAttached(audience)
	defer h.metrics.SubscriberDetached(audience)
	h.logger.Info("subscriber attached", zap.String("channel", channel))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(evt.Type, evt)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	h.logger.Info("subscriber detached", zap.String("channel", channel))
}
