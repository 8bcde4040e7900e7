package controller

import (
	"context"
	"encoding/json"

	"chat-portal/internal/dto"
	"chat-portal/internal/entity"
	"chat-portal/internal/pkg/serverutils"
	"chat-portal/internal/service"
	ws "chat-portal/internal/websocket"
	"chat-portal/pkg/chat"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// IStreamController binds a websocket connection to the chat session
// controller: inbound frames are commands (submit, select_option,
// remove_file), outbound frames are controller events.
type IStreamController interface {
	RegisterRoutes(r fiber.Router, requireSession fiber.Handler)
}

type streamController struct {
	chatService service.IChatService
	hub         *ws.Hub
}

func NewStreamController(chatService service.IChatService, hub *ws.Hub) IStreamController {
	return &streamController{chatService: chatService, hub: hub}
}

func (c *streamController) RegisterRoutes(r fiber.Router, requireSession fiber.Handler) {
	handler := fiberws.New(c.handle)
	r.Get("/ws/chat/:id", requireSession, func(ctx *fiber.Ctx) error {
		if !fiberws.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		chatID := ctx.Params("id")
		if chatID == "new" {
			chatID = ""
		}
		ctx.Locals("chat_id", chatID)
		return handler(ctx)
	})
}

func (c *streamController) handle(conn *fiberws.Conn) {
	sess := conn.Locals(serverutils.SessionLocal).(*entity.Session)
	chatID := conn.Locals("chat_id").(string)

	ctrl := c.chatService.Controller(context.Background(), sess, chatID)

	client := ws.NewClient(c.hub, conn, sess.ID, func(data []byte) {
		var cmd dto.StreamCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return
		}
		switch cmd.Action {
		case "submit":
			// Run off the read loop so long reveals don't block inbound frames
			go ctrl.Submit(context.Background(), cmd.Input)
		case "select_option":
			ctrl.SelectOption(cmd.OptionID)
		case "remove_file":
			go ctrl.RemoveFile(context.Background(), cmd.Index)
		}
	})

	c.hub.Register(client)
	go c.forward(ctrl, sess.ID)
	c.sendSnapshot(client, ctrl)

	client.Serve()

	c.chatService.Release(sess, chatID)
}

// forward pumps controller events to every connection of the session until
// the controller is torn down.
func (c *streamController) forward(ctrl *chat.Controller, sessionID string) {
	for {
		select {
		case <-ctrl.Done():
			return
		case ev := <-ctrl.Events():
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			c.hub.SendTo(sessionID, data)
		}
	}
}

// sendSnapshot pushes the full controller state to a freshly opened
// connection so reconnects render without another history fetch.
func (c *streamController) sendSnapshot(client *ws.Client, ctrl *chat.Controller) {
	flags := ctrl.Flags()
	snapshot := chat.Event{
		Type:     chat.EventState,
		Messages: ctrl.Messages(),
		Options:  ctrl.Options(),
		Files:    ctrl.AttachedFiles(),
		Status:   &flags,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}
