package server

import (
	"mindbridge/internal/models"
	"mindbridge/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SyncMood handles POST /api/mood/sync
// @Summary Record today's mood
// @Description Upsert today's mood; days skipped since the last entry are filled with not_added records
// @Tags mood
// @Accept json
// @Produce json
// @Param request body object{value=string} true "Mood value (good|neutral|bad)"
// @Success 200 {object} models.Mood
// @Failure 400 {object} object{error=string}
// @Router /mood/sync [post]
func (s *Server) SyncMood(c *fiber.Ctx) error {
	var req struct {
		Value models.MoodValue `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	mood, err := s.moodService.Sync(c.Context(), currentUserID(c), req.Value)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(mood)
}

// GetMoodHistory handles GET /api/mood/history
// @Summary Mood history
// @Description The last 30 days of moods (missing days as not_added) plus percentage stats over recorded values
// @Tags mood
// @Produce json
// @Success 200 {object} object{history=[]service.MoodEntry,stats=service.MoodStats}
// @Router /mood/history [get]
func (s *Server) GetMoodHistory(c *fiber.Ctx) error {
	userID := currentUserID(c)

	history, err := s.moodService.History(c.Context(), userID, service.DefaultMoodHistoryDays)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	stats, err := s.moodService.Stats(c.Context(), userID, service.DefaultMoodHistoryDays)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"history": history,
		"stats":   stats,
	})
}
