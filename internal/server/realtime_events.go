package server

import (
	"context"
	"encoding/json"
	"log"

	"mindbridge/internal/models"
	"mindbridge/internal/notifications"
)

// Event type constants prevent typos in event names.
const (
	EventNewNotification = "new_notification"
	EventNewJoinRequest  = "new_join_request"
	EventPostReceived    = "post_received"
)

// publishUserEvent delivers an event to one user's room: locally through the
// hub and across instances through Redis.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)
	// With Redis wired, local clients receive the event through the
	// subscription echo; broadcasting here as well would deliver twice.
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
			if s.hub != nil {
				s.hub.Broadcast(userID, message)
			}
		}
	} else if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
}

// publishCircleEvent delivers an event to everyone in a circle's room except
// the originating user.
func (s *Server) publishCircleEvent(circleID, originUserID uint, eventType string, payload interface{}) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal %s payload: %v", eventType, err)
		return
	}
	event := notifications.RoomEvent{
		Type:         eventType,
		CircleID:     circleID,
		OriginUserID: originUserID,
		Payload:      payloadJSON,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)
	if s.notifier != nil {
		if err := s.notifier.PublishCircle(context.Background(), circleID, message); err != nil {
			log.Printf("failed to publish %s event to circle %d: %v", eventType, circleID, err)
			if s.hub != nil {
				s.hub.BroadcastCircle(circleID, message, originUserID)
			}
		}
	} else if s.hub != nil {
		s.hub.BroadcastCircle(circleID, message, originUserID)
	}
}

// JoinRequested pings every admin of a private circle about a new join
// request. The event is transient: the pending-requests endpoint is the
// durable record, so nothing is persisted here.
func (s *Server) JoinRequested(ctx context.Context, circle *models.Circle, requesterID uint, adminIDs []uint) {
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		log.Printf("join request event: failed to load user %d: %v", requesterID, err)
		return
	}
	payload := map[string]interface{}{
		"circle_id":   circle.ID,
		"circle_name": circle.Name,
		"user":        userSummary(requester),
	}
	for _, adminID := range adminIDs {
		s.publishUserEvent(adminID, EventNewJoinRequest, payload)
	}
}

// RequestApproved tells the requester they are in. The notification row is
// written first so the feed stays complete when the user is offline.
func (s *Server) RequestApproved(ctx context.Context, circle *models.Circle, memberID, approverID uint) {
	approver := approverID
	notification := &models.Notification{
		UserID:   memberID,
		ActorID:  &approver,
		Type:     models.NotificationTypeRequestApproved,
		Message:  "Your request to join " + circle.Name + " was approved",
		CircleID: &circle.ID,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("failed to persist approval notification for user %d: %v", memberID, err)
		return
	}
	s.publishUserEvent(memberID, EventNewNotification, map[string]interface{}{
		"notification": notification,
	})
}

func userSummary(user *models.User) map[string]interface{} {
	if user == nil {
		return nil
	}
	return map[string]interface{}{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"avatar":       user.Avatar,
	}
}
