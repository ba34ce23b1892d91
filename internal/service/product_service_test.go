package service

import (
	"context"
	"maps"
	"slices"
	"testing"

	"boutique-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCategoryRepo struct {
	categories map[uuid.UUID]model.Category
}

func (r *fakeCategoryRepo) txState() any {
	return maps.Clone(r.categories)
}

func (r *fakeCategoryRepo) restoreTxState(state any) {
	r.categories = state.(map[uuid.UUID]model.Category)
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *model.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) Save(_ context.Context, category *model.Category) error {
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	category, ok := r.categories[id]
	if !ok || category.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &category, nil
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.categories {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakePriceHistoryRepo struct {
	records []model.PriceHistory
}

func (r *fakePriceHistoryRepo) txState() any {
	return slices.Clone(r.records)
}

func (r *fakePriceHistoryRepo) restoreTxState(state any) {
	r.records = state.([]model.PriceHistory)
}

func (r *fakePriceHistoryRepo) Create(_ context.Context, record *model.PriceHistory) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakePriceHistoryRepo) ListForProduct(_ context.Context, productID uuid.UUID) ([]model.PriceHistory, error) {
	var out []model.PriceHistory
	for _, rec := range r.records {
		if rec.ProductID == productID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type productFixture struct {
	*fixture
	categories   *fakeCategoryRepo
	priceHistory *fakePriceHistoryRepo
	productSvc   ProductService
	categoryID   uuid.UUID
}

func newProductFixture() *productFixture {
	base := newFixture()
	pf := &productFixture{
		fixture:      base,
		categories:   &fakeCategoryRepo{categories: make(map[uuid.UUID]model.Category)},
		priceHistory: &fakePriceHistoryRepo{},
	}
	base.tx.repos = append(base.tx.repos, pf.categories, pf.priceHistory)
	pf.productSvc = NewProductService(base.products, pf.categories, pf.priceHistory, base.stockSvc, base.tx)

	category := model.Category{ID: uuid.New(), Name: "Vetements"}
	pf.categories.categories[category.ID] = category
	pf.categoryID = category.ID
	return pf
}

func TestCreateProductOwnsStockRow(t *testing.T) {
	f := newProductFixture()

	product, err := f.productSvc.CreateProduct(context.Background(), f.actor, CreateProductRequest{
		SKU:          "TS-001",
		Name:         "T-shirt",
		Price:        decimal.NewFromInt(20),
		CategoryID:   f.categoryID.String(),
		InitialStock: 30,
	})
	require.NoError(t, err)

	assert.True(t, product.IsActive)
	assert.Equal(t, 30, f.quantityOf(product.ID))
	// Default alert threshold applies when none is given.
	assert.Equal(t, 10, f.stocks.stocks[product.ID].AlertThreshold)
	// The opening balance went through the ledger.
	assert.Equal(t, []string{model.MovementEntry}, f.stocks.movementTypesFor(product.ID))
}

func TestCreateProductUnknownCategory(t *testing.T) {
	f := newProductFixture()

	_, err := f.productSvc.CreateProduct(context.Background(), f.actor, CreateProductRequest{
		Name:       "T-shirt",
		Price:      decimal.NewFromInt(20),
		CategoryID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestPriceChangeAppendsHistory(t *testing.T) {
	f := newProductFixture()
	product, err := f.productSvc.CreateProduct(context.Background(), f.actor, CreateProductRequest{
		Name:       "T-shirt",
		Price:      decimal.NewFromInt(20),
		CategoryID: f.categoryID.String(),
	})
	require.NoError(t, err)

	newPrice := decimal.NewFromInt(25)
	updated, err := f.productSvc.UpdateProduct(context.Background(), f.actor, product.ID.String(), UpdateProductRequest{
		Price:             &newPrice,
		PriceChangeReason: "supplier increase",
	})
	require.NoError(t, err)
	assert.True(t, newPrice.Equal(updated.Price))

	records, err := f.productSvc.PriceHistory(context.Background(), product.ID.String())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(records[0].OldPrice))
	assert.True(t, decimal.NewFromInt(25).Equal(records[0].NewPrice))
	assert.Equal(t, "supplier increase", records[0].Reason)

	// Saving the same price again records nothing.
	_, err = f.productSvc.UpdateProduct(context.Background(), f.actor, product.ID.String(), UpdateProductRequest{
		Price: &newPrice,
	})
	require.NoError(t, err)
	records, err = f.productSvc.PriceHistory(context.Background(), product.ID.String())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUpdateProductNameOnly(t *testing.T) {
	f := newProductFixture()
	product, err := f.productSvc.CreateProduct(context.Background(), f.actor, CreateProductRequest{
		Name:       "T-shirt",
		Price:      decimal.NewFromInt(20),
		CategoryID: f.categoryID.String(),
	})
	require.NoError(t, err)

	name := "T-shirt premium"
	updated, err := f.productSvc.UpdateProduct(context.Background(), f.actor, product.ID.String(), UpdateProductRequest{
		Name: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Empty(t, f.priceHistory.records)
}
