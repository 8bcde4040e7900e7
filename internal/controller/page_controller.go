package controller

import (
	"chat-portal/internal/entity"
	"chat-portal/internal/pkg/serverutils"
	"chat-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPageController interface {
	RegisterRoutes(r fiber.Router, requirePage fiber.Handler)
	Home(ctx *fiber.Ctx) error
	ChatPage(ctx *fiber.Ctx) error
}

type pageController struct {
	chatService  service.IChatService
	publicAPIURL string
}

func NewPageController(chatService service.IChatService, publicAPIURL string) IPageController {
	return &pageController{chatService: chatService, publicAPIURL: publicAPIURL}
}

func (c *pageController) RegisterRoutes(r fiber.Router, requirePage fiber.Handler) {
	r.Get("/", requirePage, c.Home)
	r.Get("/chat/:id", requirePage, c.ChatPage)
}

func (c *pageController) Home(ctx *fiber.Ctx) error {
	return c.renderChat(ctx, "")
}

func (c *pageController) ChatPage(ctx *fiber.Ctx) error {
	return c.renderChat(ctx, ctx.Params("id"))
}

func (c *pageController) renderChat(ctx *fiber.Ctx, chatID string) error {
	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)

	// Sidebar failures degrade to an empty list; the page still renders.
	chats, err := c.chatService.ListChats(ctx.Context(), sess)
	if err != nil {
		chats = []entity.Chat{}
	}

	return ctx.Render("chat", fiber.Map{
		"Title":        "Chat",
		"Username":     sess.Username,
		"ChatID":       chatID,
		"Chats":        chats,
		"PublicAPIURL": c.publicAPIURL,
	}, "layouts/main")
}
