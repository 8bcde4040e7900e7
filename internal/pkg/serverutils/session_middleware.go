package serverutils

import (
	"chat-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the signed local session token.
const SessionCookie = "portal_session"

// SessionLocal is the ctx.Locals key holding the resolved *entity.Session.
const SessionLocal = "session"

func tokenFromRequest(ctx *fiber.Ctx) string {
	if cookie := ctx.Cookies(SessionCookie); cookie != "" {
		return cookie
	}
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// RequireSession guards the API proxy routes. Requests without a resolvable
// session are answered locally with 401; the backend is never called.
func RequireSession(sessions service.ISessionService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sess, err := sessions.Resolve(ctx.Context(), tokenFromRequest(ctx))
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		ctx.Locals(SessionLocal, sess)
		return ctx.Next()
	}
}

// RequirePage guards the rendered pages, redirecting to the login page
// instead of answering with JSON.
func RequirePage(sessions service.ISessionService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sess, err := sessions.Resolve(ctx.Context(), tokenFromRequest(ctx))
		if err != nil {
			return ctx.Redirect("/login", fiber.StatusFound)
		}
		ctx.Locals(SessionLocal, sess)
		return ctx.Next()
	}
}
