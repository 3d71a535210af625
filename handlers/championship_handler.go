package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krolow/brasileirao-backend/models"
)

// ChampionshipProvider serves season snapshots; in production it is the
// cache-gated scraping service.
type ChampionshipProvider interface {
	GetChampionship(ctx context.Context, serie string) (*models.Championship, error)
}

type ChampionshipHandler struct {
	Service ChampionshipProvider
}

func NewChampionshipHandler(service ChampionshipProvider) *ChampionshipHandler {
	return &ChampionshipHandler{Service: service}
}

// GetChampionship handles the JSON mode: validates the serie parameter and
// responds with the full season snapshot. Validation failures never trigger
// outbound traffic.
func (h *ChampionshipHandler) GetChampionship(c *fiber.Ctx) error {
	serie := strings.ToLower(c.Query("serie"))
	if !models.IsValidSerie(serie) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fiber.Map{
				"msg": "You must pass as query string the championship serie",
			},
		})
	}

	championship, err := h.Service.GetChampionship(c.Context(), serie)
	if err != nil {
		return respondPipelineError(c, err)
	}

	return c.JSON(championship)
}
