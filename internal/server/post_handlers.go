package server

import (
	"strings"

	"mindbridge/internal/models"

	"github.com/gofiber/fiber/v2"
)

// requireCircleMember writes a 403 when the user is not a member of the
// circle and returns errResponseWritten; other errors become 500s.
func (s *Server) requireCircleMember(c *fiber.Ctx, circleID, userID uint) error {
	isMember, err := s.circleService.IsMember(c.Context(), circleID, userID)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusInternalServerError, err)
		return errResponseWritten
	}
	if !isMember {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only circle members can do that"))
		return errResponseWritten
	}
	return nil
}

// GetCirclePosts handles GET /api/posts/circle/:circleId
// @Summary Circle posts
// @Description List a circle's posts, newest first (members only)
// @Tags posts
// @Produce json
// @Param circleId path int true "Circle ID"
// @Success 200 {array} models.Post
// @Failure 403 {object} object{error=string}
// @Router /posts/circle/{circleId} [get]
func (s *Server) GetCirclePosts(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "circleId")
	if err != nil {
		return nil
	}
	if err := s.requireCircleMember(c, circleID, currentUserID(c)); err != nil {
		return nil
	}

	p := parsePagination(c, 20)
	posts, err := s.postRepo.ListByCircle(c.Context(), circleID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Post detail
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if err := s.requireCircleMember(c, post.CircleID, currentUserID(c)); err != nil {
		return nil
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Share a post into a circle (members only); fans out to the circle room
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{circle_id=int,title=string,content=string,image_url=string} true "Post details"
// @Success 201 {object} models.Post
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		CircleID uint   `json:"circle_id"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.CircleID == 0 || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("circle_id, title and content are required"))
	}

	userID := currentUserID(c)
	if err := s.requireCircleMember(c, req.CircleID, userID); err != nil {
		return nil
	}

	post := &models.Post{
		CircleID: req.CircleID,
		UserID:   userID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}
	if err := s.postRepo.Create(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Reload with author and circle preloaded for the response and fan-out.
	created, err := s.postRepo.GetByID(c.Context(), post.ID)
	if err == nil {
		post = created
	}

	s.publishCircleEvent(post.CircleID, userID, EventPostReceived, post)

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update a post
// @Description Edit a post's title, content or image (author only)
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{title=string,content=string,image_url=string} true "Updated fields"
// @Success 200 {object} models.Post
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if post.UserID != currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Only the author can edit this post"))
	}

	if strings.TrimSpace(req.Title) != "" {
		post.Title = strings.TrimSpace(req.Title)
	}
	if strings.TrimSpace(req.Content) != "" {
		post.Content = req.Content
	}
	if req.ImageURL != "" {
		post.ImageURL = req.ImageURL
	}

	if err := s.postRepo.Update(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Delete a post (author or circle admin)
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return respondAppError(c, err)
	}

	userID := currentUserID(c)
	if post.UserID != userID {
		isAdmin, aerr := s.circleService.IsAdmin(c.Context(), post.CircleID, userID)
		if aerr != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, aerr)
		}
		if !isAdmin {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Only the author or a circle admin can delete this post"))
		}
	}

	if err := s.postRepo.Delete(c.Context(), postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// GetComments handles GET /api/posts/:id/comments
// @Summary Post comments
// @Description List a post's comments oldest first (members only)
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 403 {object} object{error=string}
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if err := s.requireCircleMember(c, post.CircleID, currentUserID(c)); err != nil {
		return nil
	}

	comments, err := s.postRepo.ListComments(c.Context(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comment
// @Summary Comment on a post
// @Description Add a comment (members only); the post's author gets a persisted notification
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "Comment text"
// @Success 201 {object} models.Comment
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /posts/{id}/comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment content is required"))
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return respondAppError(c, err)
	}

	userID := currentUserID(c)
	if err := s.requireCircleMember(c, post.CircleID, userID); err != nil {
		return nil
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.postRepo.CreateComment(c.Context(), comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Notify the post author about comments from other people. The row is
	// persisted first; delivery is best-effort.
	if post.UserID != userID {
		actorID := userID
		notification := &models.Notification{
			UserID:   post.UserID,
			ActorID:  &actorID,
			Type:     models.NotificationTypeComment,
			Message:  "New comment on your post \"" + post.Title + "\"",
			PostID:   &post.ID,
			CircleID: &post.CircleID,
		}
		if nerr := s.notificationRepo.Create(c.Context(), notification); nerr == nil {
			s.publishUserEvent(post.UserID, EventNewNotification, map[string]interface{}{
				"notification": notification,
			})
		}
	}

	if created, gerr := s.postRepo.GetComment(c.Context(), comment.ID); gerr == nil {
		comment = created
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
