package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

const paretoThreshold = 80

var (
	hundred  = decimal.NewFromInt(100)
	pareto80 = decimal.NewFromInt(paretoThreshold)
)

// MarginsReport rentabilidad por producto en el período, con los productos que concentran el 80% de la utilidad.
// limit recorta el ranking devuelto (no los totales).
func (uc *ReportUseCase) MarginsReport(ctx context.Context, from, to string, limit int) (*dto.MarginsReportDTO, error) {
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
	rows, err := uc.reportRepo.GetProductMargins(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("analytics: márgenes: %w", err)
	}

	var revenue, cost decimal.Decimal
	for _, r := range rows {
		revenue = revenue.Add(r.Revenue)
		cost = cost.Add(r.Cost)
	}
	profit := revenue.Sub(cost)

	ranking := buildMarginRanking(rows, profit)
	var pareto []dto.ProductMarginDTO
	for _, p := range ranking {
		if p.IsTopPareto {
			pareto = append(pareto, p)
		}
	}
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}

	return &dto.MarginsReportDTO{
		From:             start,
		To:               end,
		TotalRevenue:     revenue.Round(2),
		TotalCost:        cost.Round(2),
		TotalProfit:      profit.Round(2),
		OverallMarginPct: pct(profit, revenue),
		Ranking:          ranking,
		ParetoProducts:   pareto,
	}, nil
}

// buildMarginRanking asume rows ordenado por utilidad descendente. IsTopPareto se mantiene mientras el
// acumulado no supere el 80%; el primer producto siempre entra.
func buildMarginRanking(rows []repository.ProductMarginResult, totalProfit decimal.Decimal) []dto.ProductMarginDTO {
	ranking := make([]dto.ProductMarginDTO, 0, len(rows))
	var cumulative decimal.Decimal
	for i, r := range rows {
		gp := r.GrossProfit()
		share := pct(gp, totalProfit)
		cumulative = cumulative.Add(share)
		ranking = append(ranking, dto.ProductMarginDTO{
			Rank:            i + 1,
			ProductID:       r.ProductID,
			Code:            r.ProductCode,
			Name:            r.ProductName,
			UnitsSold:       r.UnitsSold,
			Revenue:         r.Revenue.Round(2),
			Cost:            r.Cost.Round(2),
			GrossProfit:     gp.Round(2),
			MarginPct:       pct(gp, r.Revenue),
			ProfitSharePct:  share,
			CumulativeShare: cumulative.Round(2),
			IsTopPareto:     i == 0 || cumulative.LessThanOrEqual(pareto80),
		})
	}
	return ranking
}

// pct part/total en porcentaje con 2 decimales; 0 si total no es positivo.
func pct(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}
