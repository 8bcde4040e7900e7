package controller

import (
	"errors"

	"chat-portal/internal/dto"
	"chat-portal/internal/entity"
	"chat-portal/internal/pkg/serverutils"
	"chat-portal/internal/service"
	"chat-portal/pkg/backend"

	"github.com/gofiber/fiber/v2"
)

// IChatController exposes the proxy routes the browser calls: each one
// attaches the session's bearer token and forwards to one backend endpoint,
// relaying the response or a normalized error.
type IChatController interface {
	RegisterRoutes(r fiber.Router)
	ListChats(ctx *fiber.Ctx) error
	GetChatMessages(ctx *fiber.Ctx) error
	DeleteChat(ctx *fiber.Ctx) error
	NewConversation(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	ListOptions(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chats")
	h.Get("/", c.ListChats)
	h.Post("/new-conversation", c.NewConversation)
	h.Post("/messages/:id", c.SendMessage)
	h.Get("/:id", c.GetChatMessages)
	h.Delete("/:id", c.DeleteChat)

	r.Get("/options", c.ListOptions)
}

func (c *chatController) ListChats(ctx *fiber.Ctx) error {
	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)

	chats, err := c.service.ListChats(ctx.Context(), sess)
	if err != nil {
		return relayError(ctx, err)
	}
	return ctx.JSON(chats)
}

func (c *chatController) GetChatMessages(ctx *fiber.Ctx) error {
	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)

	messages, err := c.service.GetChatMessages(ctx.Context(), sess, ctx.Params("id"))
	if err != nil {
		return relayError(ctx, err)
	}
	return ctx.JSON(messages)
}

func (c *chatController) DeleteChat(ctx *fiber.Ctx) error {
	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)

	if err := c.service.DeleteChat(ctx.Context(), sess, ctx.Params("id")); err != nil {
		return relayError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"success": true})
}

func (c *chatController) NewConversation(ctx *fiber.Ctx) error {
	var req dto.NewConversationRequest
	if err := ctx.BodyParser(&req); err != nil || req.Message == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is required"})
	}

	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)
	raw, err := c.service.NewConversation(ctx.Context(), sess, req.Message)
	if err != nil {
		return relayError(ctx, err)
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Status(fiber.StatusCreated).Send(raw)
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil || req.Message == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is required"})
	}

	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)
	reply, err := c.service.SendMessage(ctx.Context(), sess, ctx.Params("id"), req.Message, req.SourceFileID)
	if err != nil {
		return relayError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(reply)
}

func (c *chatController) ListOptions(ctx *fiber.Ctx) error {
	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)

	options, err := c.service.ListOptions(ctx.Context(), sess)
	if err != nil {
		return relayError(ctx, err)
	}
	return ctx.JSON(options)
}

// relayError maps a gateway error onto the response: upstream statuses are
// relayed as-is, transport and format problems become a 502.
func relayError(ctx *fiber.Ctx, err error) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var upstream *backend.UpstreamError
	if errors.As(err, &upstream) {
		ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if upstream.Body != "" {
			return ctx.Status(upstream.Status).SendString(upstream.Body)
		}
		return ctx.Status(upstream.Status).JSON(fiber.Map{"error": "Upstream request failed"})
	}

	var transport *backend.TransportError
	var format *backend.UnexpectedFormatError
	if errors.As(err, &transport) || errors.As(err, &format) {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
