package notifier

import (
	"fmt"

	"github.com/inspectrack/inspectrack/internal/common/config"
	"go.uber.org/zap"
)

// Type represents the type of notifier
type Type string

const (
	// TypeMemory represents the in-process notifier
	TypeMemory Type = "memory"
	// TypeRedis represents Redis-based notifier
	TypeRedis Type = "redis"
	// TypeComposite represents composite notifier
	TypeComposite Type = "composite"
)

// NewNotifier creates a new notifier based on the configuration
func NewNotifier(logger *zap.Logger, cfg *config.NotifierConfig) (Notifier, error) {
	role := config.NotifierRole(cfg.Role)
	if role == "" {
		role = config.RoleBoth // Default to both if not specified
	}

	switch Type(cfg.Type) {
	case TypeMemory, "":
		return NewMemoryNotifier(logger, role), nil
	case TypeRedis:
		return NewRedisNotifier(logger, &cfg.Redis, role)
	case TypeComposite:
		notifiers := []Notifier{NewMemoryNotifier(logger, role)}
		if cfg.Redis.Addr != "" {
			redisNotifier, err := NewRedisNotifier(logger, &cfg.Redis, role)
			if err != nil {
				return nil, err
			}
			notifiers = append(notifiers, redisNotifier)
		}
		return NewCompositeNotifier(logger, notifiers...), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %s", cfg.Type)
	}
}
