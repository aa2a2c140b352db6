package server

import (
	"strings"

	"mindbridge/internal/models"
	"mindbridge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const topCirclesLimit = 10

// CreateCircle handles POST /api/circles
// @Summary Create a circle
// @Description Create a circle; the creator becomes its first admin
// @Tags circles
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string,icon=string,tags=[]string,private=bool} true "Circle details"
// @Success 201 {object} models.Circle
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /circles [post]
func (s *Server) CreateCircle(c *fiber.Ctx) error {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Icon        string   `json:"icon"`
		Tags        []string `json:"tags"`
		Private     bool     `json:"private"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateCircleName(req.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	circle := &models.Circle{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
		Tags:        req.Tags,
		Private:     req.Private,
	}
	if err := s.circleRepo.Create(c.Context(), circle, currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(circle)
}

// GetTopCircles handles GET /api/circles
// @Summary Top circles
// @Description List the ten largest circles by member count
// @Tags circles
// @Produce json
// @Success 200 {array} models.Circle
// @Router /circles [get]
func (s *Server) GetTopCircles(c *fiber.Ctx) error {
	circles, err := s.circleRepo.ListTop(c.Context(), topCirclesLimit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(circles)
}

// GetMyCircles handles GET /api/circles/mine
// @Summary My circles
// @Description List the circles the current user belongs to
// @Tags circles
// @Produce json
// @Success 200 {array} models.Circle
// @Router /circles/mine [get]
func (s *Server) GetMyCircles(c *fiber.Ctx) error {
	circles, err := s.circleRepo.ListForUser(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(circles)
}

// GetCircle handles GET /api/circles/:id
// @Summary Circle detail
// @Description Fetch one circle; private circles are only visible to members
// @Tags circles
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {object} object{circle=models.Circle,members=[]models.CircleMembership,is_member=bool,online_members=[]int}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /circles/{id} [get]
func (s *Server) GetCircle(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	circle, err := s.circleRepo.GetByID(c.Context(), circleID)
	if err != nil {
		return respondAppError(c, err)
	}

	userID := currentUserID(c)
	isMember, err := s.circleService.IsMember(c.Context(), circleID, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if circle.Private && !isMember {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("This circle is private"))
	}

	members, err := s.circleRepo.ListMembers(c.Context(), circleID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Presence for the member list, so clients can render who is around.
	online := make([]uint, 0)
	if s.hub != nil {
		for _, m := range members {
			if s.hub.IsOnline(m.UserID) {
				online = append(online, m.UserID)
			}
		}
	}

	return c.JSON(fiber.Map{
		"circle":         circle,
		"members":        members,
		"is_member":      isMember,
		"online_members": online,
	})
}

// JoinCircle handles POST /api/circles/:id/join
// @Summary Join a circle
// @Description Join a public circle immediately, or file a join request for a private one
// @Tags circles
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {object} service.JoinResult
// @Failure 404 {object} object{error=string}
// @Router /circles/{id}/join [post]
func (s *Server) JoinCircle(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.circleService.Join(c.Context(), circleID, currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(result)
}

// LeaveCircle handles POST /api/circles/:id/leave
// @Summary Leave a circle
// @Description Leave a circle; the sole admin must promote a replacement first
// @Tags circles
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /circles/{id}/leave [post]
func (s *Server) LeaveCircle(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.circleService.Leave(c.Context(), circleID, currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left circle"})
}

// memberActionRequest is the body for promote/demote/remove endpoints.
type memberActionRequest struct {
	UserID uint `json:"user_id"`
}

// PromoteMember handles POST /api/circles/:id/promote
// @Summary Promote a member
// @Description Raise an existing member to circle admin
// @Tags circles
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body memberActionRequest true "Target member"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /circles/{id}/promote [post]
func (s *Server) PromoteMember(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req memberActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	if err := s.circleService.Promote(c.Context(), circleID, req.UserID, currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member promoted"})
}

// DemoteMember handles POST /api/circles/:id/demote
// @Summary Demote an admin
// @Description Lower a circle admin back to member; a circle keeps at least one admin
// @Tags circles
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body memberActionRequest true "Target admin"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /circles/{id}/demote [post]
func (s *Server) DemoteMember(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req memberActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	if err := s.circleService.Demote(c.Context(), circleID, req.UserID, currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Admin demoted"})
}

// RemoveCircleMember handles POST /api/circles/:id/remove-member
// @Summary Remove a member
// @Description Remove another member from the circle (admin only)
// @Tags circles
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body memberActionRequest true "Target member"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /circles/{id}/remove-member [post]
func (s *Server) RemoveCircleMember(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req memberActionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	if err := s.circleService.RemoveMember(c.Context(), circleID, req.UserID, currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// GetPendingJoinRequests handles GET /api/circles/admin/pending-requests
// @Summary Pending join requests
// @Description List pending join requests across every circle the user administers
// @Tags circles
// @Produce json
// @Success 200 {array} models.CircleJoinRequest
// @Router /circles/admin/pending-requests [get]
func (s *Server) GetPendingJoinRequests(c *fiber.Ctx) error {
	requests, err := s.circleRepo.ListJoinRequestsForAdmin(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(requests)
}

// ActOnJoinRequest handles POST /api/circles/:id/request-action
// @Summary Approve or reject a join request
// @Description Approve turns the requester into a member and notifies them; reject just drops the request
// @Tags circles
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body object{user_id=int,action=string} true "Requester and action (approve|reject)"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /circles/{id}/request-action [post]
func (s *Server) ActOnJoinRequest(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		UserID uint   `json:"user_id"`
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	actorID := currentUserID(c)
	var outcome string
	switch req.Action {
	case "approve":
		err = s.circleService.ApproveRequest(c.Context(), circleID, req.UserID, actorID)
		outcome = "Request approved"
	case "reject":
		err = s.circleService.RejectRequest(c.Context(), circleID, req.UserID, actorID)
		outcome = "Request rejected"
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Action must be approve or reject"))
	}
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": outcome})
}
