package service

import (
	"context"
	"maps"
	"slices"
	"sort"
	"time"

	"boutique-backend/internal/model"
	"boutique-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// txStater exposes a fake repo's state so fakeTx can snapshot and restore it.
type txStater interface {
	txState() any
	restoreTxState(state any)
}

// fakeTx mirrors the GORM transaction manager over the in-memory fakes: it
// snapshots every registered repo on entry and restores the snapshots when
// the callback fails, so an error path leaves no partial writes behind.
// Nested calls join the outermost snapshot.
type fakeTx struct {
	repos []txStater
	depth int
}

func (t *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.depth++
	defer func() { t.depth-- }()
	if t.depth > 1 {
		return fn(ctx)
	}

	snaps := make([]any, len(t.repos))
	for i, r := range t.repos {
		snaps[i] = r.txState()
	}
	if err := fn(ctx); err != nil {
		for i, r := range t.repos {
			r.restoreTxState(snaps[i])
		}
		return err
	}
	return nil
}

// fakeClock hands out strictly increasing timestamps so ordering and
// updated_at guards behave deterministically.
type fakeClock struct {
	base time.Time
	seq  int
}

func newFakeClock() *fakeClock {
	return &fakeClock{base: time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) next() time.Time {
	c.seq++
	return c.base.Add(time.Duration(c.seq) * time.Millisecond)
}

type fakeOrderRepo struct {
	clock  *fakeClock
	orders map[uuid.UUID]model.Order
	items  map[uuid.UUID]model.OrderItem

	// staleAttempts makes the next N guarded saves fail as if another
	// writer got there first.
	staleAttempts int
}

func newFakeOrderRepo(clock *fakeClock) *fakeOrderRepo {
	return &fakeOrderRepo{
		clock:  clock,
		orders: make(map[uuid.UUID]model.Order),
		items:  make(map[uuid.UUID]model.OrderItem),
	}
}

type orderRepoState struct {
	orders map[uuid.UUID]model.Order
	items  map[uuid.UUID]model.OrderItem
}

func (r *fakeOrderRepo) txState() any {
	return orderRepoState{orders: maps.Clone(r.orders), items: maps.Clone(r.items)}
}

func (r *fakeOrderRepo) restoreTxState(state any) {
	s := state.(orderRepoState)
	r.orders = s.orders
	r.items = s.items
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := r.clock.next()
	order.CreatedAt = now
	order.UpdatedAt = now
	cp := *order
	cp.Items = nil
	r.orders[order.ID] = cp
	return nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *model.Order) error {
	if _, ok := r.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	order.UpdatedAt = r.clock.next()
	cp := *order
	cp.Items = nil
	r.orders[order.ID] = cp
	return nil
}

func (r *fakeOrderRepo) SaveGuarded(_ context.Context, order *model.Order, loadedAt time.Time) error {
	if r.staleAttempts > 0 {
		r.staleAttempts--
		return repository.ErrStaleRow
	}
	stored, ok := r.orders[order.ID]
	if !ok || !stored.UpdatedAt.Equal(loadedAt) {
		return repository.ErrStaleRow
	}
	order.UpdatedAt = r.clock.next()
	cp := *order
	cp.Items = nil
	r.orders[order.ID] = cp
	return nil
}

func (r *fakeOrderRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	stored, ok := r.orders[id]
	if !ok || stored.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	order := stored
	items, _ := r.ItemsForOrder(ctx, id)
	order.Items = items
	return &order, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Order, error) {
	stored, ok := r.orders[id]
	if !ok || stored.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	order := stored
	return &order, nil
}

func (r *fakeOrderRepo) FindByNumero(ctx context.Context, numero string) (*model.Order, error) {
	for id, stored := range r.orders {
		if stored.Numero == numero && !stored.IsDeleted {
			return r.FindByIDWithItems(ctx, id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) CreateItem(_ context.Context, item *model.OrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := r.clock.next()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = *item
	return nil
}

func (r *fakeOrderRepo) SaveItem(_ context.Context, item *model.OrderItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	item.UpdatedAt = r.clock.next()
	r.items[item.ID] = *item
	return nil
}

func (r *fakeOrderRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(r.items, itemID)
	return nil
}

func (r *fakeOrderRepo) FindItem(_ context.Context, orderID, itemID uuid.UUID) (*model.OrderItem, error) {
	item, ok := r.items[itemID]
	if !ok || item.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *fakeOrderRepo) ItemsForOrder(_ context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	var items []model.OrderItem
	for _, item := range r.items {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, page, limit int, filter repository.OrderListFilter) ([]model.Order, int64, error) {
	var matched []model.Order
	for id, stored := range r.orders {
		if stored.IsDeleted {
			continue
		}
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}
		if filter.CourierID != nil && (stored.CourierID == nil || *stored.CourierID != *filter.CourierID) {
			continue
		}
		order, _ := r.FindByIDWithItems(ctx, id)
		matched = append(matched, *order)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeOrderRepo) CountsByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		counts[s] = 0
	}
	for _, stored := range r.orders {
		if !stored.IsDeleted {
			counts[stored.Status]++
		}
	}
	return counts, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]model.Product)}
}

func (r *fakeProductRepo) txState() any {
	return maps.Clone(r.products)
}

func (r *fakeProductRepo) restoreTxState(state any) {
	r.products = state.(map[uuid.UUID]model.Product)
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *model.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	product, ok := r.products[id]
	if !ok || product.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &product, nil
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, product := range r.products {
		if product.SKU == sku && !product.IsDeleted {
			p := product
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(_ context.Context, page, limit int, search string, categoryID *uuid.UUID) ([]model.Product, int64, error) {
	var matched []model.Product
	for _, product := range r.products {
		if product.IsDeleted {
			continue
		}
		if categoryID != nil && product.CategoryID != *categoryID {
			continue
		}
		matched = append(matched, product)
	}
	return matched, int64(len(matched)), nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
}

func (r *fakeUserRepo) txState() any {
	return maps.Clone(r.users)
}

func (r *fakeUserRepo) restoreTxState(state any) {
	r.users = state.(map[uuid.UUID]model.User)
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Save(_ context.Context, user *model.User) error {
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok || user.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username && !user.IsDeleted {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindActiveByRole(_ context.Context, id uuid.UUID, role string) (*model.User, error) {
	user, ok := r.users[id]
	if !ok || user.IsDeleted || !user.IsActive || user.Role != role {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	for _, user := range r.users {
		if !user.IsDeleted {
			users = append(users, user)
		}
	}
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) DeleteRefreshTokensForUser(_ context.Context, userID uuid.UUID) error {
	return nil
}

type fakeHistoryRepo struct {
	entries []model.OrderHistory
}

func (r *fakeHistoryRepo) txState() any {
	return slices.Clone(r.entries)
}

func (r *fakeHistoryRepo) restoreTxState(state any) {
	r.entries = state.([]model.OrderHistory)
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *model.OrderHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListForOrder(_ context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	var entries []model.OrderHistory
	for _, entry := range r.entries {
		if entry.OrderID == orderID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *fakeHistoryRepo) eventsFor(orderID uuid.UUID) []string {
	var events []string
	for _, entry := range r.entries {
		if entry.OrderID == orderID {
			events = append(events, entry.Event)
		}
	}
	return events
}

type fakeStockRepo struct {
	clock     *fakeClock
	stocks    map[uuid.UUID]model.Stock // keyed by product id
	movements []model.StockMovement
}

func newFakeStockRepo(clock *fakeClock) *fakeStockRepo {
	return &fakeStockRepo{clock: clock, stocks: make(map[uuid.UUID]model.Stock)}
}

type stockRepoState struct {
	stocks    map[uuid.UUID]model.Stock
	movements []model.StockMovement
}

func (r *fakeStockRepo) txState() any {
	return stockRepoState{stocks: maps.Clone(r.stocks), movements: slices.Clone(r.movements)}
}

func (r *fakeStockRepo) restoreTxState(state any) {
	s := state.(stockRepoState)
	r.stocks = s.stocks
	r.movements = s.movements
}

func (r *fakeStockRepo) Create(_ context.Context, stock *model.Stock) error {
	if stock.ID == uuid.Nil {
		stock.ID = uuid.New()
	}
	r.stocks[stock.ProductID] = *stock
	return nil
}

func (r *fakeStockRepo) Save(_ context.Context, stock *model.Stock) error {
	if _, ok := r.stocks[stock.ProductID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.stocks[stock.ProductID] = *stock
	return nil
}

func (r *fakeStockRepo) FindByProduct(_ context.Context, productID uuid.UUID) (*model.Stock, error) {
	stock, ok := r.stocks[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &stock, nil
}

func (r *fakeStockRepo) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) (*model.Stock, error) {
	return r.FindByProduct(ctx, productID)
}

func (r *fakeStockRepo) CreateMovement(_ context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = r.clock.next()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeStockRepo) MovementsForProduct(_ context.Context, productID uuid.UUID, from, to *time.Time) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeStockRepo) ListWithProduct(_ context.Context, page, limit int, lowOnly, outOnly bool, search string) ([]repository.StockWithProduct, int64, error) {
	var rows []repository.StockWithProduct
	for _, stock := range r.stocks {
		if lowOnly && !stock.IsLowStock() {
			continue
		}
		if outOnly && !stock.IsOutOfStock() {
			continue
		}
		rows = append(rows, repository.StockWithProduct{Stock: stock, Product: model.Product{ID: stock.ProductID}})
	}
	return rows, int64(len(rows)), nil
}

func (r *fakeStockRepo) movementTypesFor(productID uuid.UUID) []string {
	var types []string
	for _, m := range r.movements {
		if m.ProductID == productID {
			types = append(types, m.MovementType)
		}
	}
	return types
}

// fixture wires the order and stock services over the in-memory fakes.
type fixture struct {
	clock    *fakeClock
	tx       *fakeTx
	orders   *fakeOrderRepo
	products *fakeProductRepo
	users    *fakeUserRepo
	history  *fakeHistoryRepo
	stocks   *fakeStockRepo
	stockSvc StockService
	orderSvc OrderService
	actor    string
}

func newFixture() *fixture {
	clock := newFakeClock()
	f := &fixture{
		clock:    clock,
		orders:   newFakeOrderRepo(clock),
		products: newFakeProductRepo(),
		users:    newFakeUserRepo(),
		history:  &fakeHistoryRepo{},
		stocks:   newFakeStockRepo(clock),
		actor:    uuid.New().String(),
	}
	f.tx = &fakeTx{repos: []txStater{f.orders, f.products, f.users, f.history, f.stocks}}
	f.stockSvc = NewStockService(f.stocks, f.tx, nil)
	f.orderSvc = NewOrderService(f.orders, f.products, f.users, f.history, f.stockSvc, f.tx, nil)
	return f
}

// seedProduct registers a product and its stock row with the given quantity.
func (f *fixture) seedProduct(name string, price int64, quantity int) *model.Product {
	return f.seedProductID(uuid.New(), name, price, quantity)
}

// seedProductID is seedProduct with a caller-chosen id, for tests that rely
// on the product id sort order of multi-line stock batches.
func (f *fixture) seedProductID(id uuid.UUID, name string, price int64, quantity int) *model.Product {
	product := &model.Product{
		ID:       id,
		SKU:      "SKU-" + name,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		IsActive: true,
	}
	f.products.products[product.ID] = *product

	stock := &model.Stock{
		ID:             uuid.New(),
		ProductID:      product.ID,
		Quantity:       quantity,
		AlertThreshold: 5,
	}
	f.stocks.stocks[product.ID] = *stock
	return product
}

func (f *fixture) seedCourier() *model.User {
	courier := &model.User{
		ID:       uuid.New(),
		Username: "livreur1",
		Email:    "livreur1@example.com",
		Role:     model.RoleLivreur,
		IsActive: true,
	}
	f.users.users[courier.ID] = *courier
	return courier
}

func (f *fixture) quantityOf(productID uuid.UUID) int {
	return f.stocks.stocks[productID].Quantity
}
