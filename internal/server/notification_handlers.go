package server

import (
	"mindbridge/internal/models"

	"github.com/gofiber/fiber/v2"
)

const notificationsLimit = 20

// GetNotifications handles GET /api/notifications
// @Summary Notification feed
// @Description The current user's latest 20 notifications with senders preloaded
// @Tags notifications
// @Produce json
// @Success 200 {object} object{notifications=[]models.Notification,unread=int}
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := currentUserID(c)

	notifications, err := s.notificationRepo.ListByUser(c.Context(), userID, notificationsLimit, 0)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	unread, err := s.notificationRepo.CountUnread(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark one notification read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationRepo.MarkRead(c.Context(), notificationID, currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification read"})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := s.notificationRepo.MarkAllRead(c.Context(), currentUserID(c)); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"message": "All notifications read"})
}
