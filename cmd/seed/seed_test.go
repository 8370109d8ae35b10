package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/musicstore-pos/internal/application/auth"
	"github.com/jhoicas/musicstore-pos/internal/application/dto"
	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
	"github.com/jhoicas/musicstore-pos/internal/application/usecase"
	"github.com/jhoicas/musicstore-pos/internal/domain/repository"
	"github.com/jhoicas/musicstore-pos/internal/infrastructure/memory"
)

func newMemorySeeder(store *memory.Store) *seeder {
	ledger := inventory.NewLedgerUseCase(store, store.Products(), store.Movements(), store.Users(), nil, zerolog.Nop())
	return &seeder{
		users:      store.Users(),
		auth:       auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: "x"}),
		categories: usecase.NewCategoryUseCase(store.Categories()),
		suppliers:  usecase.NewSupplierUseCase(store.Suppliers()),
		products:   usecase.NewProductUseCase(store.Products(), store.Categories(), store.Suppliers(), store, ledger),
	}
}

func TestSeed_DefaultCatalogIsIdempotent(t *testing.T) {
	var cat catalog
	require.NoError(t, json.Unmarshal(defaultCatalog, &cat))

	store := memory.NewStore()
	s := newMemorySeeder(store)
	ctx := context.Background()

	first, err := s.run(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, len(cat.Users), first.users)
	assert.Equal(t, len(cat.Categories), first.categories)
	assert.Equal(t, len(cat.Suppliers), first.suppliers)
	assert.Equal(t, len(cat.Products), first.products)
	assert.Zero(t, first.skipped)

	second, err := s.run(ctx, cat)
	require.NoError(t, err)
	assert.Zero(t, second.products)
	assert.Equal(t, len(cat.Users)+len(cat.Categories)+len(cat.Suppliers)+len(cat.Products), second.skipped)

	// El stock inicial entra como movimiento ENTRADA.
	p, err := store.Products().GetByCode(ctx, "GTR-ACU-001")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 6, p.Stock)
	movs, err := store.Movements().List(ctx, repository.MovementFilter{ProductID: p.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "ENTRADA", movs[0].Type)
	assert.Equal(t, 6, movs[0].Quantity)
}

func TestSeed_UnknownCategory(t *testing.T) {
	s := newMemorySeeder(memory.NewStore())
	_, err := s.run(context.Background(), catalog{
		Users:    []dto.CreateUserRequest{{Email: "a@b.c", Password: "clave12345", Name: "A", Role: "ADMIN"}},
		Products: []seedProduct{{Code: "X-1", Name: "X", Category: "Violines"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Violines")
}
