package server

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"mindbridge/internal/models"
	"mindbridge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// UploadSignature handles GET /api/upload/signature
// @Summary Signed upload credential
// @Description Issue a short-lived signature for a direct-to-CDN avatar upload
// @Tags upload
// @Produce json
// @Success 200 {object} object{signature=string,timestamp=int,api_key=string,cloud_name=string}
// @Failure 401 {object} object{error=string}
// @Failure 503 {object} object{error=string}
// @Router /upload/signature [get]
func (s *Server) UploadSignature(c *fiber.Ctx) error {
	if s.config.UploadSecret == "" || s.config.UploadKey == "" {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewValidationError("Uploads are not configured"))
	}

	timestamp := time.Now().Unix()

	// Cloudinary signing: SHA-1 over the sorted params joined with '&',
	// with the API secret appended.
	params := []string{
		fmt.Sprintf("timestamp=%d", timestamp),
	}
	toSign := strings.Join(params, "&") + s.config.UploadSecret
	digest := sha1.Sum([]byte(toSign))

	return c.JSON(fiber.Map{
		"signature":  hex.EncodeToString(digest[:]),
		"timestamp":  timestamp,
		"api_key":    s.config.UploadKey,
		"cloud_name": s.config.UploadName,
	})
}

// CompleteSetup handles PATCH /api/upload/complete-setup
// @Summary Complete profile setup
// @Description Set the user's display name (and optional avatar/bio) and mark setup done
// @Tags upload
// @Accept json
// @Produce json
// @Param request body object{display_name=string,avatar=string,bio=string,interests=[]string} true "Profile details"
// @Success 200 {object} models.User
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /upload/complete-setup [patch]
func (s *Server) CompleteSetup(c *fiber.Ctx) error {
	var req struct {
		DisplayName string   `json:"display_name"`
		Avatar      string   `json:"avatar"`
		Bio         string   `json:"bio"`
		Interests   []string `json:"interests"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	displayName := strings.TrimSpace(req.DisplayName)

	userID := currentUserID(c)
	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}

	// Display names are unique across the platform.
	taken, err := s.userRepo.GetByDisplayName(c.Context(), displayName)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if taken != nil && taken.ID != userID {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Display name already taken", nil))
	}

	user.DisplayName = &displayName
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if len(req.Interests) > 0 {
		user.Interests = req.Interests
	}
	user.SetupDone = true

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(user)
}
