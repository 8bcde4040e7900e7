package controller

import (
	"time"

	"chat-portal/internal/dto"
	"chat-portal/internal/pkg/serverutils"
	"chat-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	LoginPage(ctx *fiber.Ctx) error
	RegisterPage(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Register(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service    service.IAuthService
	sessionTTL time.Duration
}

func NewAuthController(service service.IAuthService, sessionTTL time.Duration) IAuthController {
	return &authController{service: service, sessionTTL: sessionTTL}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	r.Get("/login", c.LoginPage)
	r.Get("/register", c.RegisterPage)
	r.Post("/login", c.Login)
	r.Post("/register", c.Register)
	r.Post("/logout", c.Logout)
}

func (c *authController) LoginPage(ctx *fiber.Ctx) error {
	return ctx.Render("login", fiber.Map{"Title": "Sign in"}, "layouts/main")
}

func (c *authController) RegisterPage(ctx *fiber.Ctx) error {
	return ctx.Render("register", fiber.Map{"Title": "Sign up"}, "layouts/main")
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": dto.StatusInvalidData})
	}

	res, status := c.service.Login(ctx.Context(), &req)
	switch status {
	case dto.StatusInvalidData:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": status})
	case dto.StatusFailed:
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": status})
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     serverutils.SessionCookie,
		Value:    res.Token,
		Expires:  time.Now().Add(c.sessionTTL),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	return ctx.JSON(fiber.Map{"status": status, "username": res.Username})
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": dto.StatusInvalidData})
	}

	status := c.service.Register(ctx.Context(), &req)
	code := fiber.StatusOK
	if status == dto.StatusInvalidData {
		code = fiber.StatusBadRequest
	} else if status == dto.StatusFailed {
		code = fiber.StatusUnprocessableEntity
	}
	return ctx.Status(code).JSON(fiber.Map{"status": status})
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	c.service.Logout(ctx.Context(), ctx.Cookies(serverutils.SessionCookie))

	ctx.Cookie(&fiber.Cookie{
		Name:     serverutils.SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
	return ctx.Redirect("/login", fiber.StatusFound)
}
