package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetTags handles GET /api/tags
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.tagRepo.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}

// GetTag handles GET /api/tags/:name. Lookup is exact and case sensitive,
// matching how tags attach to posts.
func (s *Server) GetTag(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Tag name is required"))
	}

	tag, err := s.tagRepo.GetByName(c.UserContext(), name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tag)
}
