package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krolow/brasileirao-backend/models"
	"github.com/krolow/brasileirao-backend/services"
)

// CalendarProvider renders per-team iCalendar files from the season
// scoreboard API.
type CalendarProvider interface {
	GenerateCalendar(ctx context.Context, serie, team string) (string, error)
}

type CalendarHandler struct {
	Service CalendarProvider
}

func NewCalendarHandler(service CalendarProvider) *CalendarHandler {
	return &CalendarHandler{Service: service}
}

// GetCalendar handles the iCal mode: validates serie and team, generates the
// calendar and responds with a forced file download.
func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	serie := strings.ToLower(c.Query("serie"))
	team := c.Query("team")

	if !models.IsValidSerie(serie) || team == "" {
		return c.Status(fiber.StatusBadRequest).
			SendString("You must pass query string: team and serie (a or b)")
	}

	calendar, err := h.Service.GenerateCalendar(c.Context(), serie, team)
	if err != nil {
		return respondPipelineError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/force-download")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+services.CalendarFilename(serie, team))

	return c.SendString(calendar)
}
