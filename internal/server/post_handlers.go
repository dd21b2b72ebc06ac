package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Status  string   `json:"status"`
		Tags    []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Principal: principal,
		Title:     req.Title,
		Content:   req.Content,
		Status:    models.PostStatus(req.Status),
		Tags:      req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// GetPostsByTag handles GET /api/posts/tag/:tagName
func (s *Server) GetPostsByTag(c *fiber.Ctx) error {
	tagName := c.Params("tagName")

	posts, err := s.postService.GetPostsByTag(c.UserContext(), tagName)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(posts)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Tags is a pointer so an absent field and an explicit empty list are
	// distinguishable: absent leaves associations alone, empty clears them.
	var req struct {
		Title   string    `json:"title"`
		Content string    `json:"content"`
		Status  string    `json:"status"`
		Tags    *[]string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		Principal: principal,
		PostID:    id,
		Title:     req.Title,
		Content:   req.Content,
		Status:    models.PostStatus(req.Status),
		Tags:      req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	principal := principalFromLocals(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		Principal: principal,
		PostID:    id,
	}); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Post deleted successfully",
	})
}
