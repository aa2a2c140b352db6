package server

import (
	"context"
	"testing"
	"time"

	"mindbridge/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receiveCount drains a client's send queue for a settle window and returns
// how many messages arrived.
func receiveCount(c *notifications.Client, settle time.Duration) int {
	count := 0
	deadline := time.After(settle)
	for {
		select {
		case <-c.Send:
			count++
		case <-deadline:
			return count
		}
	}
}

// With Redis wired, events must reach a local client through the
// subscription echo only, never doubled by a direct hub broadcast.
func TestPublishUserEventDeliversOnceWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	s := newTestServer(t)
	s.hub = notifications.NewHub(rdb)
	s.notifier = notifications.NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.hub.StartWiring(ctx, s.notifier))

	recipient, err := s.hub.Register(21, nil)
	require.NoError(t, err)

	s.publishUserEvent(21, EventNewNotification, map[string]interface{}{"id": 1})

	assert.Equal(t, 1, receiveCount(recipient, 300*time.Millisecond))

	_ = s.hub.Shutdown(context.Background())
}

func TestPublishCircleEventDeliversOnceAndSkipsOrigin(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	s := newTestServer(t)
	s.hub = notifications.NewHub(rdb)
	s.notifier = notifications.NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.hub.StartWiring(ctx, s.notifier))

	origin, err := s.hub.Register(31, nil)
	require.NoError(t, err)
	member, err := s.hub.Register(32, nil)
	require.NoError(t, err)
	s.hub.JoinCircle(31, 4)
	s.hub.JoinCircle(32, 4)

	s.publishCircleEvent(4, 31, EventPostReceived, map[string]interface{}{"title": "hi"})

	assert.Equal(t, 1, receiveCount(member, 300*time.Millisecond))
	assert.Equal(t, 0, receiveCount(origin, 100*time.Millisecond))

	_ = s.hub.Shutdown(context.Background())
}

// Without Redis the hub still delivers directly, exactly once.
func TestPublishUserEventDeliversOnceWithoutRedis(t *testing.T) {
	s := newTestServer(t)

	recipient, err := s.hub.Register(41, nil)
	require.NoError(t, err)

	s.publishUserEvent(41, EventNewNotification, map[string]interface{}{"id": 2})

	assert.Equal(t, 1, receiveCount(recipient, 200*time.Millisecond))

	_ = s.hub.Shutdown(context.Background())
}
