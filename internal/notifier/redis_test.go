package notifier

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/inspectrack/inspectrack/internal/common/cnst"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisNotifier(t *testing.T, role config.NotifierRole) *RedisNotifier {
	t.Helper()
	mr := miniredis.RunT(t)
	n, err := NewRedisNotifier(zap.NewNop(), &config.RedisConfig{
		ClusterType: cnst.RedisClusterTypeSingle,
		Addr:        mr.Addr(),
		Prefix:      "inspectrack:",
	}, role)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestRedisNotifierPublishSubscribe(t *testing.T) {
	n := newRedisNotifier(t, config.RoleBoth)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := n.Subscribe(ctx, PortalChannel(3))
	require.NoError(t, err)

	evt, err := NewEvent(cnst.EventInspectionClosed, 3, InspectionRef{ID: 12, Status: "completed"})
	require.NoError(t, err)
	require.NoError(t, n.Publish(ctx, PortalChannel(3), evt))

	got := recvEvent(t, sub)
	assert.Equal(t, cnst.EventInspectionClosed, got.Type)
	assert.EqualValues(t, 3, got.CompanyID)
	assert.NotEmpty(t, got.Payload)
}

func TestRedisNotifierRoleGates(t *testing.T) {
	sender := newRedisNotifier(t, config.RoleSender)
	_, err := sender.Subscribe(context.Background(), CompanyChannel(1))
	assert.ErrorIs(t, err, cnst.ErrNotReceiver)

	receiver := newRedisNotifier(t, config.RoleReceiver)
	evt, _ := NewEvent(cnst.EventInspectionUpdated, 1, nil)
	assert.ErrorIs(t, receiver.Publish(context.Background(), CompanyChannel(1), evt), cnst.ErrNotSender)
}

func TestRedisNotifierBadAddr(t *testing.T) {
	_, err := NewRedisNotifier(zap.NewNop(), &config.RedisConfig{
		ClusterType: cnst.RedisClusterTypeSingle,
		Addr:        "127.0.0.1:1",
	}, config.RoleBoth)
	assert.Error(t, err)
}
