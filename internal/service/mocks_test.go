package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// txnStampKey marks contexts handed out by recordingTxn so mocks can
// tell whether a write ran inside the transaction callback.
type txnStampKey struct{}

func inTxnCtx(ctx context.Context) bool {
	stamped, _ := ctx.Value(txnStampKey{}).(bool)
	return stamped
}

// --- product repository mock ---

type mockProductRepo struct {
	m          sync.Mutex
	products   map[primitive.ObjectID]*domain.Product
	err        error
	txnStamped bool
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[primitive.ObjectID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepo) ListActive(context.Context, int64) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListAll(context.Context) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, product *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, p := range m.products {
		if p.Slug == product.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	product.ID = primitive.NewObjectID()
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepo) Update(_ context.Context, product *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepo) DecrementStockClamped(ctx context.Context, id primitive.ObjectID, qty int64) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.txnStamped = inTxnCtx(ctx)
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	before := *p
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	return &before, nil
}

func (m *mockProductRepo) stock(id primitive.ObjectID) int64 {
	m.m.Lock()
	defer m.m.Unlock()
	return m.products[id].Stock
}

// --- cart repository mock ---

type mockCartRepo struct {
	m          sync.Mutex
	carts      map[string]*domain.Cart
	err        error
	txnStamped bool
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepo) withCart(userID string, items ...domain.CartItem) *mockCartRepo {
	m.carts[userID] = &domain.Cart{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Items:     items,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return m
}

func (m *mockCartRepo) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *cart
	cp.Items = append([]domain.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		m.carts[userID] = &domain.Cart{UserID: userID, Items: []domain.CartItem{item}}
		return nil
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (m *mockCartRepo) UpdateItemQuantity(_ context.Context, userID string, productID primitive.ObjectID, quantity int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return repository.ErrItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepo) RemoveItem(_ context.Context, userID string, productID primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i, item := range cart.Items {
		if item.ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockCartRepo) ClearItems(ctx context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.txnStamped = inTxnCtx(ctx)
	if m.err != nil {
		return m.err
	}
	if cart, ok := m.carts[userID]; ok {
		cart.Items = []domain.CartItem{}
	}
	return nil
}

func (m *mockCartRepo) items(userID string) []domain.CartItem {
	m.m.Lock()
	defer m.m.Unlock()
	if cart, ok := m.carts[userID]; ok {
		return append([]domain.CartItem(nil), cart.Items...)
	}
	return nil
}

// --- order repository mock ---

type mockOrderRepo struct {
	m          sync.Mutex
	orders     []*domain.Order
	sales      []domain.ProductSales
	err        error
	txnStamped bool
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.txnStamped = inTxnCtx(ctx)
	if m.err != nil {
		return m.err
	}
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepo) GetByIDForUser(_ context.Context, id primitive.ObjectID, userID string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.ID == id && o.UserID == userID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.OrderStatus) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = status
			return nil
		}
	}
	return repository.ErrOrderNotFound
}

func (m *mockOrderRepo) UpdateStatusForUser(_ context.Context, id primitive.ObjectID, userID string, status domain.OrderStatus) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, o := range m.orders {
		if o.ID == id && o.UserID == userID {
			o.Status = status
			return nil
		}
	}
	return repository.ErrOrderNotFound
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(context.Context) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, o := range m.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockOrderRepo) SalesByProduct(context.Context) ([]domain.ProductSales, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.sales, nil
}

func (m *mockOrderRepo) get(id primitive.ObjectID) *domain.Order {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			cp := *o
			return &cp
		}
	}
	return nil
}

func (m *mockOrderRepo) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.orders)
}

// --- outbox repository mock ---

type mockOutboxRepo struct {
	m          sync.Mutex
	events     []*repository.OutboxEvent
	err        error
	txnStamped bool
}

func (m *mockOutboxRepo) Append(ctx context.Context, event *repository.OutboxEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.txnStamped = inTxnCtx(ctx)
	if m.err != nil {
		return m.err
	}
	event.ID = primitive.NewObjectID()
	m.events = append(m.events, event)
	return nil
}

func (m *mockOutboxRepo) FetchPending(context.Context, int64) ([]*repository.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*repository.OutboxEvent
	for _, e := range m.events {
		if e.SentAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxRepo) MarkSent(_ context.Context, id primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	now := time.Now()
	for _, e := range m.events {
		if e.ID == id {
			e.SentAt = &now
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id.Hex())
}

func (m *mockOutboxRepo) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.events)
}

// --- txn runner ---

// passthroughTxn just runs the callback; atomicity is the real
// runner's concern, not the services'.
type passthroughTxn struct{}

func (passthroughTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingTxn stamps the context it hands to the callback, so tests
// can verify each write ran through that context and not the caller's.
type recordingTxn struct {
	calls int
}

func (r *recordingTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(context.WithValue(ctx, txnStampKey{}, true))
}

// --- cart cache mock ---

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

func (m *mockProductRepo) sawTxnCtx() bool {
	m.m.Lock()
	defer m.m.Unlock()
	return m.txnStamped
}

func (m *mockCartRepo) sawTxnCtx() bool {
	m.m.Lock()
	defer m.m.Unlock()
	return m.txnStamped
}

func (m *mockOrderRepo) sawTxnCtx() bool {
	m.m.Lock()
	defer m.m.Unlock()
	return m.txnStamped
}

func (m *mockOutboxRepo) sawTxnCtx() bool {
	m.m.Lock()
	defer m.m.Unlock()
	return m.txnStamped
}
