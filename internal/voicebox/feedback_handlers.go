package voicebox

import (
	"strings"

	"mindbridge/internal/models"
	"mindbridge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const defaultFeedbackLimit = 50

// ListFeedback handles GET /api/feedback
// @Summary List feedback
// @Description List feedback posts, optionally filtered by a search string; sort=recent (default) or trending
// @Tags feedback
// @Produce json
// @Param search query string false "Substring match on title and message"
// @Param sort query string false "recent or trending"
// @Success 200 {array} models.Feedback
// @Router /feedback [get]
func (s *Server) ListFeedback(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultFeedbackLimit)
	if limit <= 0 || limit > 100 {
		limit = defaultFeedbackLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, err := s.feedbackRepo.List(c.Context(),
		strings.TrimSpace(c.Query("search")), c.Query("sort"), limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(items)
}

// CreateFeedback handles POST /api/feedback
// @Summary Post feedback
// @Description Post an anonymous feedback message; no author is recorded
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body object{title=string,message=string} true "Feedback"
// @Success 201 {object} models.Feedback
// @Failure 400 {object} object{error=string}
// @Router /feedback [post]
func (s *Server) CreateFeedback(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := validation.ValidateFeedbackMessage(req.Message); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	feedback := &models.Feedback{
		Title:   strings.TrimSpace(req.Title),
		Message: strings.TrimSpace(req.Message),
	}
	if err := s.feedbackRepo.Create(c.Context(), feedback); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(feedback)
}

// UpvoteFeedback handles PUT /api/feedback/:id/upvote
// @Summary Upvote feedback
// @Description Increment or decrement a feedback post's upvote count; it never drops below zero
// @Tags feedback
// @Accept json
// @Produce json
// @Param id path int true "Feedback ID"
// @Param request body object{action=string} true "increment or decrement"
// @Success 200 {object} models.Feedback
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /feedback/{id}/upvote [put]
func (s *Server) UpvoteFeedback(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var delta int
	switch req.Action {
	case "increment":
		delta = 1
	case "decrement":
		delta = -1
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Action must be increment or decrement"))
	}

	feedback, err := s.feedbackRepo.AddUpvote(c.Context(), uint(id), delta)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(feedback)
}
