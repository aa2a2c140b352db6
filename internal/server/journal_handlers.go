package server

import (
	"strings"

	"mindbridge/internal/models"

	"github.com/gofiber/fiber/v2"
)

const recentJournalsLimit = 3

// GetJournals handles GET /api/journals
// @Summary List journals
// @Description List the current user's journal entries, newest first
// @Tags journals
// @Produce json
// @Success 200 {array} models.Journal
// @Router /journals [get]
func (s *Server) GetJournals(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	journals, err := s.journalRepo.ListByUser(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(journals)
}

// GetRecentJournals handles GET /api/journals/recent
// @Summary Recent journals
// @Description The current user's three most recent journal entries
// @Tags journals
// @Produce json
// @Success 200 {array} models.Journal
// @Router /journals/recent [get]
func (s *Server) GetRecentJournals(c *fiber.Ctx) error {
	journals, err := s.journalRepo.ListByUser(c.Context(), currentUserID(c), recentJournalsLimit, 0)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(journals)
}

// CreateJournal handles POST /api/journals
// @Summary Create a journal entry
// @Tags journals
// @Accept json
// @Produce json
// @Param request body object{title=string,content=string,tags=[]string,visibility=string} true "Journal entry"
// @Success 201 {object} models.Journal
// @Failure 400 {object} object{error=string}
// @Router /journals [post]
func (s *Server) CreateJournal(c *fiber.Ctx) error {
	var req struct {
		Title      string   `json:"title"`
		Content    string   `json:"content"`
		Tags       []string `json:"tags"`
		Visibility string   `json:"visibility"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title and content are required"))
	}

	visibility := models.JournalVisibility(req.Visibility)
	if req.Visibility == "" {
		visibility = models.JournalVisibilityPrivate
	}
	if !models.ValidJournalVisibility(visibility) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Visibility must be private, circles or public"))
	}

	journal := &models.Journal{
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Tags:       req.Tags,
		Visibility: visibility,
		UserID:     currentUserID(c),
	}
	if err := s.journalRepo.Create(c.Context(), journal); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(journal)
}

// DeleteJournal handles DELETE /api/journals/:id
// @Summary Delete a journal entry
// @Description Delete one of the current user's journal entries
// @Tags journals
// @Produce json
// @Param id path int true "Journal ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /journals/{id} [delete]
func (s *Server) DeleteJournal(c *fiber.Ctx) error {
	journalID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.journalRepo.Delete(c.Context(), journalID, currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Journal deleted"})
}
