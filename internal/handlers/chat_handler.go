package handlers

import (
	"luxe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ChatHandler serves the shopping assistant.
type ChatHandler struct {
	service  *services.ChatService
	validate *validator.Validate
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the chat route. It is public.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/chat", h.HandleChat)
}

// ChatRequest is one shopper message.
type ChatRequest struct {
	Message string `json:"message" validate:"max=1000"`
}

// HandleChat answers a shopper message from the catalog.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	reply, err := h.service.Reply(c.UserContext(), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"text":    reply.Text,
		"reply":   reply.Text,
		"data":    reply,
	})
}
