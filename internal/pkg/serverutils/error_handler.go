// FILE: internal/pkg/serverutils/error_handler.go
package serverutils

import (
	"errors"

	"ai-roleplay-be/internal/service"
	"ai-roleplay-be/pkg/generation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandlerMiddleware converts errors that escape a handler into the
// uniform error envelope. Handlers that already wrote a response are left
// alone.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.Is(err, generation.ErrSessionActive):
			code = fiber.StatusConflict
		case errors.Is(err, generation.ErrNoBackend):
			code = fiber.StatusPreconditionFailed
		case errors.Is(err, generation.ErrMessageNotFound),
			errors.Is(err, service.ErrChatSessionNotFound),
			errors.Is(err, service.ErrCharacterNotFound),
			errors.Is(err, service.ErrLoreEntryNotFound),
			errors.Is(err, service.ErrBackendConfigNotFound),
			errors.Is(err, gorm.ErrRecordNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, generation.ErrNotAssistantMessage):
			code = fiber.StatusUnprocessableEntity
		case errors.Is(err, service.ErrInvalidCredentials):
			code = fiber.StatusUnauthorized
		case errors.Is(err, service.ErrAccountBlocked):
			code = fiber.StatusForbidden
		case errors.Is(err, service.ErrEmailTaken):
			code = fiber.StatusConflict
		case errors.Is(err, service.ErrUserNotFound):
			code = fiber.StatusNotFound
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
