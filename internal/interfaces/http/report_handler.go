package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/musicstore-pos/internal/application/analytics"
)

// ReportHandler reportes de ventas y panel.
type ReportHandler struct {
	reports   *analytics.ReportUseCase
	dashboard *analytics.DashboardUseCase
	log       zerolog.Logger
}

func NewReportHandler(reports *analytics.ReportUseCase, dashboard *analytics.DashboardUseCase, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, dashboard: dashboard, log: log}
}

// Sales godoc
// @Summary      Reporte de ventas por período
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde (YYYY-MM-DD). Por defecto: inicio del mes"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD). Por defecto: hoy"
// @Success      200  {object}  dto.SalesReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/sales [get]
func (h *ReportHandler) Sales(c *fiber.Ctx) error {
	out, err := h.reports.SalesReport(c.UserContext(), c.Query("from"), c.Query("to"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// TopProducts godoc
// @Summary      Productos más vendidos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from   query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to     query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        limit  query  int     false  "Cantidad"  default(10)
// @Success      200  {array}  dto.TopProductDTO
// @Router       /api/reports/top-products [get]
func (h *ReportHandler) TopProducts(c *fiber.Ctx) error {
	out, err := h.reports.TopProducts(c.UserContext(), c.Query("from"), c.Query("to"), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Margins godoc
// @Summary      Rentabilidad por producto
// @Description  Ranking por utilidad bruta y productos que concentran el 80% de la utilidad (Pareto).
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from   query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to     query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        limit  query  int     false  "Tamaño del ranking"  default(10)
// @Success      200  {object}  dto.MarginsReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/margins [get]
func (h *ReportHandler) Margins(c *fiber.Ctx) error {
	out, err := h.reports.MarginsReport(c.UserContext(), c.Query("from"), c.Query("to"), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Dashboard godoc
// @Summary      Resumen del panel
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardDTO
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	out, err := h.dashboard.GetSummary(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
