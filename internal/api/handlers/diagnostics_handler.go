package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/diagnostics"
	"github.com/eroland11241988/insightlm/pkg/logger"
)

type DiagnosticsHandler struct {
	aggregator *diagnostics.Aggregator
}

func NewDiagnosticsHandler(aggregator *diagnostics.Aggregator) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		aggregator: aggregator,
	}
}

func (h *DiagnosticsHandler) Preflight(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func (h *DiagnosticsHandler) Diagnose(c *fiber.Ctx) error {
	var req struct {
		NotebookID string `json:"notebookId"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse diagnostics request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.NotebookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "notebookId is required",
		})
	}

	report, err := h.aggregator.Diagnose(c.Context(), req.NotebookID)
	if err != nil {
		logger.Error("Diagnostics failed", zap.String("notebook_id", req.NotebookID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(report)
}
