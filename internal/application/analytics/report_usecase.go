package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

const (
	defaultTopN = 10
	maxTopN     = 100
)

// ReportUseCase reportes de ventas por período.
type ReportUseCase struct {
	reportRepo repository.ReportRepository
	now        func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(reportRepo repository.ReportRepository) *ReportUseCase {
	return &ReportUseCase{reportRepo: reportRepo, now: time.Now}
}

// SalesReport totales de ventas del período [from, to] (fechas YYYY-MM-DD; vacías = mes en curso).
func (uc *ReportUseCase) SalesReport(ctx context.Context, from, to string) (*dto.SalesReportDTO, error) {
	start, end, err := parsePeriod(uc.now(), from, to)
	if err != nil {
		return nil, err
	}
	totals, err := uc.reportRepo.GetSalesTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	byMethod := totals.ByPaymentMethod
	if byMethod == nil {
		byMethod = map[string]decimal.Decimal{}
	}
	return &dto.SalesReportDTO{
		From:            start,
		To:              end,
		SalesCount:      totals.Count,
		SalesTotal:      totals.Total.Round(2),
		ByPaymentMethod: byMethod,
	}, nil
}

// TopProducts ranking de productos por unidades vendidas en el período.
func (uc *ReportUseCase) TopProducts(ctx context.Context, from, to string, limit int) ([]dto.TopProductDTO, error) {
	start, end, err := parsePeriod(uc.now(), from, to)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopN
	}
	if limit > maxTopN {
		limit = maxTopN
	}
	rows, err := uc.reportRepo.GetTopProducts(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TopProductDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.TopProductDTO{
			ProductID: r.ProductID,
			Code:      r.ProductCode,
			Name:      r.ProductName,
			UnitsSold: r.UnitsSold,
			Revenue:   r.Revenue.Round(2),
		})
	}
	return out, nil
}

func parsePeriod(now time.Time, startStr, endStr string) (start, end time.Time, err error) {
	if endStr == "" {
		end = now
	} else {
		end, err = time.ParseInLocation("2006-01-02", endStr, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidationError("to", "formato esperado YYYY-MM-DD")
		}
		end = end.Add(24*time.Hour - time.Nanosecond) // inclusive hasta el final del día
	}

	if startStr == "" {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	} else {
		start, err = time.ParseInLocation("2006-01-02", startStr, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidationError("from", "formato esperado YYYY-MM-DD")
		}
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, domain.NewValidationError("from", "no puede ser posterior a to")
	}
	return start, end, nil
}
