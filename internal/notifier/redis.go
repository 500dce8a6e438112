package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inspectrack/inspectrack/internal/common/cnst"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"github.com/inspectrack/inspectrack/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier implements Notifier using Redis pub/sub so events
// reach subscribers on every server instance.
type RedisNotifier struct {
	logger *zap.Logger
	client redis.UniversalClient
	prefix string
	role   config.NotifierRole
}

// NewRedisNotifier creates a new Redis-based notifier
func NewRedisNotifier(logger *zap.Logger, cfg *config.RedisConfig, role config.NotifierRole) (*RedisNotifier, error) {
	addrs := utils.SplitByMultipleDelimiters(cfg.Addr, ";", ",")
	redisOptions := &redis.UniversalOptions{
		Addrs:    addrs,
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if cfg.ClusterType == cnst.RedisClusterTypeSentinel {
		redisOptions.MasterName = cfg.MasterName
	}
	if cfg.ClusterType != cnst.RedisClusterTypeCluster {
		// can not set db in cluster mode
		redisOptions.DB = cfg.DB
	}
	client := redis.NewUniversalClient(redisOptions)

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisNotifier{
		logger: logger.Named("notifier.redis"),
		client: client,
		prefix: cfg.Prefix,
		role:   role,
	}, nil
}

func (r *RedisNotifier) channelName(channel string) string {
	return r.prefix + channel
}

// Publish implements Notifier.Publish
func (r *RedisNotifier) Publish(ctx context.Context, channel string, evt *Event) error {
	if !r.CanSend() {
		return cnst.ErrNotSender
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := r.client.Publish(ctx, r.channelName(channel), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe implements Notifier.Subscribe
func (r *RedisNotifier) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	if !r.CanReceive() {
		return nil, cnst.ErrNotReceiver
	}

	sub := r.client.Subscribe(ctx, r.channelName(channel))
	ch := make(chan *Event, 16)

	go func() {
		defer close(ch)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					r.logger.Error("failed to unmarshal event", zap.Error(err))
					continue
				}
				select {
				case ch <- &evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// CanReceive returns true if the notifier can receive events
func (r *RedisNotifier) CanReceive() bool {
	return r.role == config.RoleReceiver || r.role == config.RoleBoth
}

// CanSend returns true if the notifier can send events
func (r *RedisNotifier) CanSend() bool {
	return r.role == config.RoleSender || r.role == config.RoleBoth
}

// Close implements Notifier.Close
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
