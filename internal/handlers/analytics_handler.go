package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/analytics"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
)

type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
	debug      bool
}

func NewAnalyticsHandler(aggregator *analytics.Aggregator, debug bool) *AnalyticsHandler {
	return &AnalyticsHandler{aggregator: aggregator, debug: debug}
}

func (h *AnalyticsHandler) Gender(c *fiber.Ctx) error {
	dist, err := h.aggregator.GenderDistribution(c.UserContext())
	if err != nil {
		return InternalError(c, err, h.debug)
	}
	return c.JSON(dto.OK("Gender analytics retrieved successfully", dist))
}

func (h *AnalyticsHandler) MonthlyUsers(c *fiber.Ctx) error {
	months, err := h.aggregator.MonthlyCohort(c.UserContext())
	if err != nil {
		return InternalError(c, err, h.debug)
	}
	return c.JSON(dto.OK("Monthly users analytics retrieved successfully", months))
}

func (h *AnalyticsHandler) EmailDomains(c *fiber.Ctx) error {
	domains, err := h.aggregator.EmailDomains(c.UserContext())
	if err != nil {
		return InternalError(c, err, h.debug)
	}
	return c.JSON(dto.OK("Email domains analytics retrieved successfully", domains))
}
