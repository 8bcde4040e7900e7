package controller

import (
	"errors"
	"io"

	"chat-portal/internal/entity"
	"chat-portal/internal/pkg/serverutils"
	"chat-portal/internal/service"
	"chat-portal/pkg/backend"
	"chat-portal/pkg/chat"

	"github.com/gofiber/fiber/v2"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type fileController struct {
	service service.IChatService
}

func NewFileController(service service.IChatService) IFileController {
	return &fileController{service: service}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/files")
	h.Post("/upload", c.Upload)
	h.Delete("/:id", c.Delete)
}

// Upload relays all files of the multipart "files" field to the backend in a
// single request. The optional chat_id query ties the upload to a live chat
// controller so its stream subscribers see the attachment events.
func (c *fileController) Upload(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No files provided"})
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No files provided"})
	}

	files := make([]backend.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unreadable file: " + header.Filename})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unreadable file: " + header.Filename})
		}
		files = append(files, backend.UploadFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)
	infos, err := c.service.UploadFiles(ctx.Context(), sess, ctx.Query("chat_id"), files)
	if err != nil {
		if errors.Is(err, chat.ErrUploadInProgress) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return relayError(ctx, err)
	}
	return ctx.JSON(infos)
}

func (c *fileController) Delete(ctx *fiber.Ctx) error {
	sess := ctx.Locals(serverutils.SessionLocal).(*entity.Session)

	if err := c.service.DeleteFile(ctx.Context(), sess, ctx.Params("id")); err != nil {
		return relayError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"success": true})
}
