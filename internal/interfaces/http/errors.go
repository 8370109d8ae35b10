package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain"
)

// insufficientStockBody respuesta 409 con el detalle del producto sin stock.
type insufficientStockBody struct {
	dto.ErrorResponse
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// respondError traduce errores de dominio a HTTP. Los errores no reconocidos se registran y devuelven 500
// sin exponer el detalle.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(insufficientStockBody{
			ErrorResponse: dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: stockErr.Error()},
			ProductID:     stockErr.ProductID,
			Available:     stockErr.Available,
			Requested:     stockErr.Requested,
		})
	}
	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: valErr.Error()})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrInvalidSessionState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "REGISTER_NOT_OPEN", Message: err.Error()})
	case errors.Is(err, domain.ErrRegisterAlreadyOpen):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "REGISTER_ALREADY_OPEN", Message: "ya existe una caja abierta para este usuario"})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		// Reintentable: otro proceso modificó el stock o hubo deadlock.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia, reintente"})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

// pageFromQuery lee limit/offset del query string, acotados por PageRequest.Normalize.
func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit", dto.DefaultPageLimit), Offset: c.QueryInt("offset", 0)}
	page.Normalize()
	return page
}

// dateRangeFromQuery lee from/to (YYYY-MM-DD). to es inclusivo hasta el final del día.
func dateRangeFromQuery(c *fiber.Ctx) (from, to *time.Time, err error) {
	if s := c.Query("from"); s != "" {
		t, perr := time.ParseInLocation("2006-01-02", s, time.Local)
		if perr != nil {
			return nil, nil, domain.NewValidationError("from", fmt.Sprintf("fecha inválida %q, formato YYYY-MM-DD", s))
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, perr := time.ParseInLocation("2006-01-02", s, time.Local)
		if perr != nil {
			return nil, nil, domain.NewValidationError("to", fmt.Sprintf("fecha inválida %q, formato YYYY-MM-DD", s))
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		to = &t
	}
	return from, to, nil
}
