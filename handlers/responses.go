package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/krolow/brasileirao-backend/shared"
)

// respondPipelineError maps a pipeline failure onto the outbound response.
// An upstream HTTP status passes through verbatim with an empty body; any
// other failure becomes a generic server error envelope carrying the
// diagnostic detail.
func respondPipelineError(c *fiber.Ctx, err error) error {
	if status, ok := shared.UpstreamStatus(err); ok {
		return c.Status(status).Send(nil)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"msg":   "Something went wrong :(",
			"error": err.Error(),
		},
	})
}
