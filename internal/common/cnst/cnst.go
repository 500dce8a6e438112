package cnst

import "errors"

// XLang is the context/header key used for language negotiation.
const XLang = "X-Lang"

// Supported language codes. Spanish is the product default.
const (
	LangES = "es"
	LangEN = "en"
)

// Realtime event names, as delivered on tenant channels.
const (
	EventInspectionUpdated    = "InspectionUpdated"
	EventInspectionCompleted  = "InspectionCompleted"
	EventInspectionClosed     = "InspectionClosed"
	EventQualityAlertTriggered = "QualityAlertTriggered"
)

// Channel prefixes. Each tenant has two parallel channels: one for
// backoffice employees and one for portal viewers.
const (
	ChannelCompanyPrefix = "company."
	ChannelPortalPrefix  = "portal.company."
)

// Redis cluster deployment types for the notifier.
const (
	RedisClusterTypeSingle   = "single"
	RedisClusterTypeCluster  = "cluster"
	RedisClusterTypeSentinel = "sentinel"
)

var (
	ErrNotReceiver = errors.New("notifier is not configured as receiver")
	ErrNotSender   = errors.New("notifier is not configured as sender")
)
