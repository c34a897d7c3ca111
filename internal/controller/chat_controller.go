// FILE: internal/controller/chat_controller.go
package controller

import (
	"ai-roleplay-be/internal/dto"
	"ai-roleplay-be/internal/pkg/serverutils"
	"ai-roleplay-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	Index(ctx *fiber.Ctx) error
	Latest(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Generate(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
	Continue(ctx *fiber.Ctx) error
	CycleVariation(ctx *fiber.Ctx) error
	EditMessage(ctx *fiber.Ctx) error
	DeleteMessage(ctx *fiber.Ctx) error
	Snapshot(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.CreateSession)
	h.Get("", c.Index)
	h.Get("latest", c.Latest)
	h.Delete(":id", c.DeleteSession)
	h.Get(":id/messages", c.Messages)
	h.Post(":id/generate", c.Generate)
	h.Post(":id/stop", c.Stop)
	h.Post(":id/regenerate", c.Regenerate)
	h.Post(":id/continue", c.Continue)
	h.Post(":id/variation/cycle", c.CycleVariation)
	h.Put(":id/message", c.EditMessage)
	h.Delete(":id/message/:messageId", c.DeleteMessage)
	h.Get(":id/snapshot", c.Snapshot)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateChatSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session created", res))
}

func (c *chatController) Index(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) Latest(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.LatestSession(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Chat session deleted", nil))
}

func (c *chatController) Messages(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListMessages(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) Generate(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	var req dto.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Generate(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Generation started", res))
}

func (c *chatController) Stop(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Stop(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Stop requested", nil))
}

func (c *chatController) Regenerate(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	var req dto.RegenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Regenerate(ctx.Context(), userId, sessionId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Regeneration started", nil))
}

func (c *chatController) Continue(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	var req dto.ContinueRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Continue(ctx.Context(), userId, sessionId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Continuation started", nil))
}

func (c *chatController) CycleVariation(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	var req dto.CycleVariationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CycleVariation(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Variation selected", res))
}

func (c *chatController) EditMessage(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	var req dto.EditMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.EditMessage(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message updated", res))
}

func (c *chatController) DeleteMessage(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}
	messageId, err := uuid.Parse(ctx.Params("messageId"))
	if err != nil {
		return fiber.ErrBadRequest
	}

	req := dto.DeleteMessageRequest{MessageId: messageId}
	if err := c.service.DeleteMessage(ctx.Context(), userId, sessionId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Message deleted", nil))
}

func (c *chatController) Snapshot(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.sessionScope(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Snapshot(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) sessionScope(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.ErrBadRequest
	}
	return userId, sessionId, nil
}
