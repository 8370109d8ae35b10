package sales

import (
	"context"
	"fmt"

	"github.com/jhoicas/musicstore-pos/internal/domain"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
)

// ReceiptUseCase genera el ticket PDF de una venta ya registrada.
type ReceiptUseCase struct {
	saleRepo     repository.SaleRepository
	registerRepo repository.CashRegisterRepository
	generator    ReceiptGenerator
}

// NewReceiptUseCase construye el caso de uso inyectando sus dependencias.
func NewReceiptUseCase(
	saleRepo repository.SaleRepository,
	registerRepo repository.CashRegisterRepository,
	generator ReceiptGenerator,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		saleRepo:     saleRepo,
		registerRepo: registerRepo,
		generator:    generator,
	}
}

// DownloadReceipt devuelve (pdfBytes, filename, nil), o domain.ErrNotFound si la venta no existe.
func (uc *ReceiptUseCase) DownloadReceipt(ctx context.Context, saleID string) ([]byte, string, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", fmt.Errorf("ticket: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", domain.ErrNotFound
	}
	register, err := uc.registerRepo.GetByID(ctx, sale.CashRegisterID)
	if err != nil {
		return nil, "", fmt.Errorf("ticket: obtener caja: %w", err)
	}

	pdfBytes, err := uc.generator.GenerateReceipt(ctx, sale, register)
	if err != nil {
		return nil, "", fmt.Errorf("ticket: generación fallida: %w", err)
	}
	short := sale.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return pdfBytes, fmt.Sprintf("ticket_%s.pdf", short), nil
}
