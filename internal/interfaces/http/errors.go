package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
)

const localsInternalError = "internal_error"

// writeError traduce errores de dominio a respuestas HTTP con dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	var stockErr *domain.InsufficientStockError
	var validationErr *domain.ValidationError
	var stateErr *domain.InvalidStateError
	var configErr *domain.ConfigurationError

	switch {
	case errors.As(err, &stockErr):
		details := map[string]any{
			"material_id": stockErr.MaterialID,
			"requested":   stockErr.Requested.String(),
			"available":   stockErr.Available.String(),
		}
		if stockErr.BatchID != "" {
			details["batch_id"] = stockErr.BatchID
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error(), Details: details})
	case errors.As(err, &validationErr):
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: validationErr.Error()}
		if validationErr.Field != "" {
			resp.Details = map[string]any{"field": validationErr.Field}
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.As(err, &stateErr):
		resp := dto.ErrorResponse{Code: "INVALID_STATE", Message: stateErr.Error()}
		if stateErr.BatchID != "" {
			resp.Details = map[string]any{"batch_id": stateErr.BatchID}
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	case errors.As(err, &configErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "CONFIGURATION", Message: configErr.Error(),
			Details: map[string]any{"material_id": configErr.MaterialID},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el material está siendo modificado, reintente"})
	}
	// El detalle (mensajes de pgx, Redis...) no sale al cliente; lo registra RequestLogger.
	c.Locals(localsInternalError, err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
