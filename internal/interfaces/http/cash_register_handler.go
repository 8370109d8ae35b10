package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/musicstore-pos/internal/application/cashregister"
	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// CashRegisterHandler apertura, cierre y consulta de cajas.
type CashRegisterHandler struct {
	uc  *cashregister.CashRegisterUseCase
	log zerolog.Logger
}

func NewCashRegisterHandler(uc *cashregister.CashRegisterUseCase, log zerolog.Logger) *CashRegisterHandler {
	return &CashRegisterHandler{uc: uc, log: log}
}

// Open godoc
// @Summary      Abrir caja
// @Tags         cash-registers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenRegisterRequest  true  "opening_amount"
// @Success      201   {object}  dto.CashRegisterResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cash-registers/open [post]
func (h *CashRegisterHandler) Open(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.OpenRegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Open(c.UserContext(), userID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Close godoc
// @Summary      Cerrar caja
// @Description  Solo el dueño de la caja o un ADMIN. Devuelve el arqueo.
// @Tags         cash-registers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la caja"
// @Param        body  body  dto.CloseRegisterRequest  true  "closing_amount, notes"
// @Success      200   {object}  dto.CloseRegisterResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cash-registers/{id}/close [post]
func (h *CashRegisterHandler) Close(c *fiber.Ctx) error {
	var in dto.CloseRegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	id := c.Params("id")
	if !IsAdmin(c) {
		current, err := h.uc.GetByID(c.UserContext(), id)
		if err != nil {
			return respondError(c, h.log, err)
		}
		if current.Register.UserID != GetUserID(c) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "la caja pertenece a otro usuario"})
		}
	}
	out, err := h.uc.Close(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Active godoc
// @Summary      Caja abierta del usuario
// @Tags         cash-registers
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CashRegisterResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cash-registers/active [get]
func (h *CashRegisterHandler) Active(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetActive(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener caja con su resumen
// @Tags         cash-registers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la caja"
// @Success      200  {object}  dto.CloseRegisterResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cash-registers/{id} [get]
func (h *CashRegisterHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar cajas
// @Tags         cash-registers
// @Security     Bearer
// @Produce      json
// @Param        status   query  string  false  "ABIERTA o CERRADA"
// @Param        user_id  query  string  false  "Usuario"
// @Param        from     query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to       query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200  {array}  dto.CashRegisterResponse
// @Router       /api/cash-registers [get]
func (h *CashRegisterHandler) List(c *fiber.Ctx) error {
	from, to, err := dateRangeFromQuery(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	filter := repository.CashRegisterFilter{
		Status: c.Query("status"),
		UserID: c.Query("user_id"),
		From:   from,
		To:     to,
	}
	out, err := h.uc.List(c.UserContext(), filter, pageFromQuery(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
