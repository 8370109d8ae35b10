// Package analytics contiene los casos de uso para reportes de ventas e inventario
// y el resumen del panel del POS.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// DashboardUseCase genera el resumen del día, del mes en curso y del inventario.
//
// Fuente de datos: ReportRepository (consultas read-only).
type DashboardUseCase struct {
	reportRepo repository.ReportRepository
	now        func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(reportRepo repository.ReportRepository) *DashboardUseCase {
	return &DashboardUseCase{reportRepo: reportRepo, now: time.Now}
}

// GetSummary construye el DashboardDTO.
//
// Tres llamadas en paralelo:
//  1. GetSalesTotals(hoy)     → SalesToday
//  2. GetSalesTotals(mes)     → SalesMonth
//  3. GetInventorySnapshot()  → LowStockCount, ActiveProducts, InventoryValue
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardDTO, error) {
	now := uc.now()

	// Hoy: 00:00:00.000 – 23:59:59.999
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24*time.Hour - time.Nanosecond)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type totalsResult struct {
		totals *repository.SalesTotals
		err    error
	}
	type snapshotResult struct {
		snap *repository.InventorySnapshot
		err  error
	}

	todayCh := make(chan totalsResult, 1)
	monthCh := make(chan totalsResult, 1)
	snapCh := make(chan snapshotResult, 1)

	go func() {
		t, err := uc.reportRepo.GetSalesTotals(ctx, todayStart, todayEnd)
		todayCh <- totalsResult{t, err}
	}()
	go func() {
		t, err := uc.reportRepo.GetSalesTotals(ctx, monthStart, todayEnd)
		monthCh <- totalsResult{t, err}
	}()
	go func() {
		s, err := uc.reportRepo.GetInventorySnapshot(ctx)
		snapCh <- snapshotResult{s, err}
	}()

	today := <-todayCh
	month := <-monthCh
	snap := <-snapCh

	if today.err != nil {
		return nil, fmt.Errorf("dashboard: ventas de hoy: %w", today.err)
	}
	if month.err != nil {
		return nil, fmt.Errorf("dashboard: ventas del mes: %w", month.err)
	}
	if snap.err != nil {
		return nil, fmt.Errorf("dashboard: inventario: %w", snap.err)
	}

	return &dto.DashboardDTO{
		SalesToday:     today.totals.Total.Round(2),
		SalesMonth:     month.totals.Total.Round(2),
		LowStockCount:  snap.snap.LowStockCount,
		ActiveProducts: snap.snap.ActiveProducts,
		InventoryValue: snap.snap.InventoryValue.Round(2),
	}, nil
}
