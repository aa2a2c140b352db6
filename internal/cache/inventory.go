package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix          = "user:%d"
	CircleKeyPrefix        = "circle:%d"
	TopCirclesKey          = "circles:top"
	MoodHistoryPrefix      = "moods:%d"
	NotificationsKeyPrefix = "notifications:%d"
)

const (
	UserTTL          = 5 * time.Minute
	CircleTTL        = 10 * time.Minute
	// The top-circles list changes with every join/leave, so it only gets
	// a short TTL on top of the explicit invalidation.
	TopCirclesTTL    = 30 * time.Second
	MoodHistoryTTL   = 5 * time.Minute
	NotificationsTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func CircleKey(circleID uint) string {
	return fmt.Sprintf(CircleKeyPrefix, circleID)
}

func MoodHistoryKey(userID uint) string {
	return fmt.Sprintf(MoodHistoryPrefix, userID)
}

func NotificationsKey(userID uint) string {
	return fmt.Sprintf(NotificationsKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateCircle(ctx context.Context, circleID uint) {
	Invalidate(ctx, CircleKey(circleID))
	Invalidate(ctx, TopCirclesKey)
}

func InvalidateMoodHistory(ctx context.Context, userID uint) {
	Invalidate(ctx, MoodHistoryKey(userID))
}

func InvalidateNotifications(ctx context.Context, userID uint) {
	Invalidate(ctx, NotificationsKey(userID))
}
