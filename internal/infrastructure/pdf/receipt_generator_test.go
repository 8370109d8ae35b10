package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/musicstore-pos/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"999", "999,00"},
		{"25000", "25.000,00"},
		{"1234567.5", "1.234.567,50"},
		{"-1500", "-1.500,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdefgh", ShortID("abcdefgh-1234"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestGenerateReceipt(t *testing.T) {
	sale := &entity.Sale{
		ID:             "7f1c2d3e-0000-4000-8000-000000000001",
		CashRegisterID: "c1",
		UserName:       "Cajero Uno",
		PaymentMethod:  entity.PaymentMethodEfectivo,
		Total:          decimal.RequireFromString("1250.00"),
		CreatedAt:      time.Date(2026, 5, 2, 14, 30, 0, 0, time.UTC),
		Lines: []*entity.SaleLine{
			{ProductCode: "GT-001", ProductName: "Guitarra acústica", Quantity: 1, UnitPrice: decimal.NewFromInt(1200), Subtotal: decimal.NewFromInt(1200)},
			{ProductCode: "AC-010", ProductName: "Juego de cuerdas", Quantity: 2, UnitPrice: decimal.NewFromInt(25), Subtotal: decimal.NewFromInt(50)},
		},
	}
	reg := &entity.CashRegister{ID: "c1"}

	out, err := NewReceiptGenerator("Música & Sonido").GenerateReceipt(context.Background(), sale, reg)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
