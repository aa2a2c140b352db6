// Package service provides application business logic (circles, moods, etc.).
package service

import (
	"context"

	"mindbridge/internal/models"
	"mindbridge/internal/repository"
)

// CircleNotifier receives membership events so the caller can persist and
// fan out notifications. Implementations must tolerate being called with
// a request context that may already be finished.
type CircleNotifier interface {
	JoinRequested(ctx context.Context, circle *models.Circle, requesterID uint, adminIDs []uint)
	RequestApproved(ctx context.Context, circle *models.Circle, memberID, approverID uint)
}

// CircleService provides circle membership business logic: joining,
// leaving, role changes and the private-circle join request flow.
type CircleService struct {
	circles  repository.CircleRepository
	notifier CircleNotifier
}

// NewCircleService returns a new CircleService. notifier may be nil.
func NewCircleService(circles repository.CircleRepository, notifier CircleNotifier) *CircleService {
	return &CircleService{circles: circles, notifier: notifier}
}

// JoinResult tells the caller whether the user became a member right away
// or was queued behind a join request.
type JoinResult struct {
	Joined    bool `json:"joined"`
	Requested bool `json:"requested"`
}

// Join adds the user to a public circle immediately. For private circles
// it files a join request and notifies the circle's admins instead.
// Both paths are idempotent.
func (s *CircleService) Join(ctx context.Context, circleID, userID uint) (*JoinResult, error) {
	circle, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	membership, err := s.circles.GetMembership(ctx, circleID, userID)
	if err != nil {
		return nil, err
	}
	if membership != nil {
		return &JoinResult{Joined: true}, nil
	}

	if !circle.Private {
		if err := s.circles.AddMember(ctx, circleID, userID, models.CircleRoleMember); err != nil {
			return nil, err
		}
		return &JoinResult{Joined: true}, nil
	}

	pending, err := s.circles.HasJoinRequest(ctx, circleID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.circles.AddJoinRequest(ctx, circleID, userID); err != nil {
		return nil, err
	}
	// Only the first request pings the admins.
	if !pending && s.notifier != nil {
		adminIDs, err := s.circles.ListAdminIDs(ctx, circleID)
		if err == nil {
			s.notifier.JoinRequested(ctx, circle, userID, adminIDs)
		}
	}
	return &JoinResult{Requested: true}, nil
}

// Leave removes the user from the circle. The sole admin cannot leave;
// they must promote a replacement first.
func (s *CircleService) Leave(ctx context.Context, circleID, userID uint) error {
	if _, err := s.circles.GetByID(ctx, circleID); err != nil {
		return err
	}

	membership, err := s.circles.GetMembership(ctx, circleID, userID)
	if err != nil {
		return err
	}
	if membership == nil {
		return models.NewValidationError("You are not a member of this circle")
	}

	if membership.Role == models.CircleRoleAdmin {
		adminCount, err := s.circles.CountAdmins(ctx, circleID)
		if err != nil {
			return err
		}
		if adminCount == 1 {
			return models.NewValidationError("Promote another admin before leaving")
		}
	}

	return s.circles.RemoveMember(ctx, circleID, userID)
}

// ApproveRequest lets a circle admin accept a pending join request,
// turning the requester into a member and notifying them.
func (s *CircleService) ApproveRequest(ctx context.Context, circleID, requesterID, approverID uint) error {
	circle, err := s.requireAdmin(ctx, circleID, approverID)
	if err != nil {
		return err
	}

	pending, err := s.circles.HasJoinRequest(ctx, circleID, requesterID)
	if err != nil {
		return err
	}
	if !pending {
		return models.NewNotFoundError("Join request not found", nil)
	}

	if err := s.circles.AddMember(ctx, circleID, requesterID, models.CircleRoleMember); err != nil {
		return err
	}
	if err := s.circles.RemoveJoinRequest(ctx, circleID, requesterID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.RequestApproved(ctx, circle, requesterID, approverID)
	}
	return nil
}

// RejectRequest drops a pending join request without notifying anyone.
func (s *CircleService) RejectRequest(ctx context.Context, circleID, requesterID, rejecterID uint) error {
	if _, err := s.requireAdmin(ctx, circleID, rejecterID); err != nil {
		return err
	}

	pending, err := s.circles.HasJoinRequest(ctx, circleID, requesterID)
	if err != nil {
		return err
	}
	if !pending {
		return models.NewNotFoundError("Join request not found", nil)
	}
	return s.circles.RemoveJoinRequest(ctx, circleID, requesterID)
}

// Promote raises an existing member to admin. The target must already be
// a member; promotion never creates a membership.
func (s *CircleService) Promote(ctx context.Context, circleID, targetID, actorID uint) error {
	if _, err := s.requireAdmin(ctx, circleID, actorID); err != nil {
		return err
	}

	membership, err := s.circles.GetMembership(ctx, circleID, targetID)
	if err != nil {
		return err
	}
	if membership == nil {
		return models.NewValidationError("User is not a member of this circle")
	}
	if membership.Role == models.CircleRoleAdmin {
		return nil
	}
	return s.circles.UpdateMemberRole(ctx, circleID, targetID, models.CircleRoleAdmin)
}

// Demote lowers an admin back to member. The last admin cannot be demoted.
func (s *CircleService) Demote(ctx context.Context, circleID, targetID, actorID uint) error {
	if _, err := s.requireAdmin(ctx, circleID, actorID); err != nil {
		return err
	}

	membership, err := s.circles.GetMembership(ctx, circleID, targetID)
	if err != nil {
		return err
	}
	if membership == nil || membership.Role != models.CircleRoleAdmin {
		return models.NewValidationError("User is not an admin of this circle")
	}

	adminCount, err := s.circles.CountAdmins(ctx, circleID)
	if err != nil {
		return err
	}
	if adminCount == 1 {
		return models.NewForbiddenError("A circle must keep at least one admin")
	}
	return s.circles.UpdateMemberRole(ctx, circleID, targetID, models.CircleRoleMember)
}

// RemoveMember lets an admin kick another member out. The sole admin of
// a circle cannot be removed.
func (s *CircleService) RemoveMember(ctx context.Context, circleID, targetID, actorID uint) error {
	if _, err := s.requireAdmin(ctx, circleID, actorID); err != nil {
		return err
	}
	if targetID == actorID {
		return models.NewValidationError("Leave the circle instead of removing yourself")
	}

	membership, err := s.circles.GetMembership(ctx, circleID, targetID)
	if err != nil {
		return err
	}
	if membership == nil {
		return models.NewValidationError("User is not a member of this circle")
	}
	if membership.Role == models.CircleRoleAdmin {
		adminCount, err := s.circles.CountAdmins(ctx, circleID)
		if err != nil {
			return err
		}
		if adminCount == 1 {
			return models.NewValidationError("The circle's only admin cannot be removed")
		}
	}
	return s.circles.RemoveMember(ctx, circleID, targetID)
}

// IsAdmin reports whether the user administers the circle.
func (s *CircleService) IsAdmin(ctx context.Context, circleID, userID uint) (bool, error) {
	membership, err := s.circles.GetMembership(ctx, circleID, userID)
	if err != nil {
		return false, err
	}
	return membership != nil && membership.Role == models.CircleRoleAdmin, nil
}

// IsMember reports whether the user belongs to the circle.
func (s *CircleService) IsMember(ctx context.Context, circleID, userID uint) (bool, error) {
	membership, err := s.circles.GetMembership(ctx, circleID, userID)
	if err != nil {
		return false, err
	}
	return membership != nil, nil
}

func (s *CircleService) requireAdmin(ctx context.Context, circleID, userID uint) (*models.Circle, error) {
	circle, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}
	membership, err := s.circles.GetMembership(ctx, circleID, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Role != models.CircleRoleAdmin {
		return nil, models.NewForbiddenError("Only circle admins can do that")
	}
	return circle, nil
}
