package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/relay"
	"github.com/eroland11241988/insightlm/pkg/logger"
)

type ChatHandler struct {
	orchestrator *relay.Orchestrator
}

func NewChatHandler(orchestrator *relay.Orchestrator) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
	}
}

// Preflight answers OPTIONS immediately, before any parsing or relay logic.
func (h *ChatHandler) Preflight(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req relay.Request
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse relay request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	res := h.orchestrator.Relay(c.Context(), req)
	return respond(c, res)
}

// respond serializes a tagged relay result into the wire contract for its
// kind.
func respond(c *fiber.Ctx, res relay.Result) error {
	switch res.Kind {
	case relay.KindSuccess:
		return c.JSON(fiber.Map{
			"success": true,
			"message": res.Message,
			"data":    res.Data,
		})

	case relay.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   res.Error,
			"details": res.Fields,
		})

	case relay.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   res.Error,
			"details": res.Details,
		})

	case relay.KindIneligible:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   res.Error,
			"details": res.Details,
		})

	case relay.KindConfiguration, relay.KindTransport, relay.KindSemantic:
		body := fiber.Map{
			"error":   res.Error,
			"details": res.Details,
		}
		if res.Suggestion != "" {
			body["suggestion"] = res.Suggestion
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)

	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   res.Error,
			"details": res.Details,
		})
	}
}
