package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operantis/backoffice-api/internal/config"
	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// fakeCatalog is an in-memory CatalogStore shared with fakeSaleStore so
// that stock mutations are visible across both.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[int]*models.Product
}

func newFakeCatalog(products ...*models.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[int]*models.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetByID(id int) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, utils.ErrProductNotFound
	}
	copy := *p
	return &copy, nil
}

// fakeSaleStore mimics the transactional store: the whole create either
// applies (all decrements plus the usage increment) or fails with no
// mutation at all.
type fakeSaleStore struct {
	catalog   *fakeCatalog
	discounts *fakeDiscountStore
	mu        sync.Mutex
	sales     map[int]*models.Sale
	nextID    int
}

func newFakeSaleStore(catalog *fakeCatalog, discounts *fakeDiscountStore) *fakeSaleStore {
	return &fakeSaleStore{
		catalog:   catalog,
		discounts: discounts,
		sales:     make(map[int]*models.Sale),
		nextID:    1,
	}
}

func (s *fakeSaleStore) Create(ctx context.Context, sale *models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog.mu.Lock()
	defer s.catalog.mu.Unlock()

	// Decrement item by item, like the real store's conditional UPDATE
	// sequence. A failed guard rolls back everything applied so far.
	applied := 0
	rollback := func() {
		for _, item := range sale.Items[:applied] {
			s.catalog.products[item.ProductID].Stock += item.Quantity
		}
	}
	for _, item := range sale.Items {
		p, ok := s.catalog.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			rollback()
			return utils.ErrStockConflict
		}
		p.Stock -= item.Quantity
		applied++
	}
	if sale.DiscountID != nil && s.discounts != nil {
		d, ok := s.discounts.byID[*sale.DiscountID]
		if !ok {
			rollback()
			return utils.ErrDiscountNotFound
		}
		if d.MaxUses != nil && d.UsedCount >= *d.MaxUses {
			rollback()
			return utils.ErrDiscountExhausted
		}
		d.UsedCount++
	}

	sale.ID = s.nextID
	sale.SaleNumber = fmt.Sprintf("SL-20260827-%06d", s.nextID)
	sale.CreatedAt = time.Now()
	s.nextID++

	stored := *sale
	stored.Items = append([]models.SaleItem(nil), sale.Items...)
	s.sales[sale.ID] = &stored
	return nil
}

func (s *fakeSaleStore) GetAll() ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Sale
	for _, sale := range s.sales {
		out = append(out, *sale)
	}
	return out, nil
}

func (s *fakeSaleStore) GetByID(id int) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, utils.ErrSaleNotFound
	}
	copy := *sale
	return &copy, nil
}

func (s *fakeSaleStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return utils.ErrSaleNotFound
	}

	s.catalog.mu.Lock()
	for _, item := range sale.Items {
		if p, ok := s.catalog.products[item.ProductID]; ok {
			p.Stock += item.Quantity
		}
	}
	s.catalog.mu.Unlock()

	delete(s.sales, id)
	return nil
}

type fakeCustomerStore struct {
	customers map[int]*models.Customer
}

func (s *fakeCustomerStore) GetByID(id int) (*models.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, utils.ErrCustomerNotFound
	}
	return c, nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []models.Notification
	fail   bool
}

func (e *fakeEmitter) Emit(userID int, t models.NotificationType, message string) (*models.Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return nil, errors.New("emitter down")
	}
	n := models.Notification{UserID: userID, Type: t, Message: message}
	e.events = append(e.events, n)
	return &n, nil
}

func (e *fakeEmitter) byType(t models.NotificationType) []models.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []models.Notification
	for _, n := range e.events {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type saleFixture struct {
	svc       *SaleService
	catalog   *fakeCatalog
	sales     *fakeSaleStore
	discounts *fakeDiscountStore
	emitter   *fakeEmitter
}

func newSaleFixture(products []*models.Product, discounts ...*models.Discount) *saleFixture {
	catalog := newFakeCatalog(products...)
	discountStore := newFakeDiscountStore(discounts...)
	saleStore := newFakeSaleStore(catalog, discountStore)
	emitter := &fakeEmitter{}

	cfg := config.SaleConfig{
		LowStockThreshold:  10,
		LargeSaleThreshold: dec("1000"),
		CreateTimeout:      10 * time.Second,
	}

	svc := NewSaleService(
		saleStore,
		catalog,
		&fakeCustomerStore{customers: map[int]*models.Customer{1: {ID: 1, Name: "Ada"}}},
		NewDiscountService(discountStore, nil),
		NewPromotionService(newFakePromotionStore(), nil),
		emitter,
		cfg,
	)
	return &saleFixture{
		svc:       svc,
		catalog:   catalog,
		sales:     saleStore,
		discounts: discountStore,
		emitter:   emitter,
	}
}

func product(id int, price string, stock int) *models.Product {
	return &models.Product{
		ID:       id,
		SKU:      fmt.Sprintf("SKU-%03d", id),
		Name:     fmt.Sprintf("Product %d", id),
		Price:    dec(price),
		Stock:    stock,
		IsActive: true,
	}
}

func TestCreateSaleHappyPath(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "20", 8)})

	sale, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 5}},
	}, 99)
	require.NoError(t, err)

	assert.NotEmpty(t, sale.SaleNumber)
	assert.True(t, sale.Subtotal.Equal(dec("100")))
	assert.True(t, sale.Total.Equal(dec("100")))
	require.Len(t, sale.Items, 1)
	assert.True(t, sale.Items[0].UnitPrice.Equal(dec("20")))

	remaining, _ := f.catalog.GetByID(1)
	assert.Equal(t, 3, remaining.Stock)

	// 3 < 10, so a stock alert fires.
	lowStock := f.emitter.byType(models.NotificationStockLow)
	require.Len(t, lowStock, 1)
	assert.Equal(t, 99, lowStock[0].UserID)
}

func TestCreateSaleQuantityEqualsStock(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "10", 5)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 5}},
	}, 1)
	require.NoError(t, err)

	remaining, _ := f.catalog.GetByID(1)
	assert.Equal(t, 0, remaining.Stock)
}

func TestCreateSaleQuantityExceedsStock(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "10", 5)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 6}},
	}, 1)
	assert.ErrorIs(t, err, utils.ErrInsufficientStock)

	remaining, _ := f.catalog.GetByID(1)
	assert.Equal(t, 5, remaining.Stock)
}

func TestCreateSaleInvalidQuantity(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "10", 5)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 0}},
	}, 1)
	assert.ErrorIs(t, err, utils.ErrInvalidQuantity)
}

func TestCreateSaleDuplicateProductRejected(t *testing.T) {
	// Two lines of 5 against stock 8 would pass a per-line stock check
	// and oversell; the cart is rejected before any mutation instead.
	f := newSaleFixture([]*models.Product{product(1, "10", 8)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 5}, {ProductID: 1, Quantity: 5}},
	}, 1)
	assert.ErrorIs(t, err, utils.ErrDuplicateProduct)

	remaining, _ := f.catalog.GetByID(1)
	assert.Equal(t, 8, remaining.Stock)
}

func TestCreateSaleDuplicateProductRejectedEvenWithinStock(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "10", 20)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 2}, {ProductID: 1, Quantity: 2}},
	}, 1)
	assert.ErrorIs(t, err, utils.ErrDuplicateProduct)
}

func TestFakeSaleStoreDecrementsPerItem(t *testing.T) {
	// The store itself must not accept a sale that oversells, even when
	// handed duplicate lines directly.
	catalog := newFakeCatalog(product(1, "10", 8))
	store := newFakeSaleStore(catalog, nil)

	sale := &models.Sale{
		UserID: 1,
		Items: []models.SaleItem{
			{ProductID: 1, Quantity: 5, UnitPrice: dec("10")},
			{ProductID: 1, Quantity: 5, UnitPrice: dec("10")},
		},
	}
	err := store.Create(context.Background(), sale)
	assert.ErrorIs(t, err, utils.ErrStockConflict)

	remaining, _ := catalog.GetByID(1)
	assert.Equal(t, 8, remaining.Stock)
}

func TestCreateSaleNoItems(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "10", 5)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{}, 1)
	assert.ErrorIs(t, err, utils.ErrInvalidQuantity)
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	f := newSaleFixture(nil)

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 404, Quantity: 1}},
	}, 1)
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
}

func TestCreateSaleUnknownCustomer(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "10", 5)})

	missing := 404
	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		CustomerID: &missing,
		Items:      []models.LineItem{{ProductID: 1, Quantity: 1}},
	}, 1)
	assert.ErrorIs(t, err, utils.ErrCustomerNotFound)
}

func TestCreateSaleWithDiscount(t *testing.T) {
	d := validDiscount() // SAVE10, 10 percent
	f := newSaleFixture([]*models.Product{product(1, "100", 50)}, d)

	sale, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items:        []models.LineItem{{ProductID: 1, Quantity: 2}},
		DiscountCode: "SAVE10",
	}, 1)
	require.NoError(t, err)

	assert.True(t, sale.Subtotal.Equal(dec("200")))
	assert.True(t, sale.DiscountAmount.Equal(dec("20")))
	assert.True(t, sale.Total.Equal(dec("180")))
	require.NotNil(t, sale.DiscountID)
	assert.Equal(t, d.ID, *sale.DiscountID)

	// The usage increment happened inside the sale store.
	assert.Equal(t, 1, f.discounts.byID[d.ID].UsedCount)
}

func TestCreateSaleLargeSaleNotification(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "750", 100)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 2}},
	}, 7)
	require.NoError(t, err)

	large := f.emitter.byType(models.NotificationSale)
	require.Len(t, large, 1)
	assert.Equal(t, 7, large[0].UserID)
}

func TestCreateSaleTotalAtThresholdNoNotification(t *testing.T) {
	// Exactly 1000 does not exceed the threshold.
	f := newSaleFixture([]*models.Product{product(1, "1000", 100)})

	_, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 1}},
	}, 7)
	require.NoError(t, err)

	assert.Empty(t, f.emitter.byType(models.NotificationSale))
}

func TestCreateSaleNotificationFailureSwallowed(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "750", 100)})
	f.emitter.fail = true

	sale, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 2}},
	}, 7)
	require.NoError(t, err)
	assert.NotNil(t, sale)
}

func TestCreateSaleFrozenUnitPrice(t *testing.T) {
	p := product(1, "20", 100)
	f := newSaleFixture([]*models.Product{p})

	sale, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)

	// A later price change does not touch the recorded line item.
	f.catalog.mu.Lock()
	f.catalog.products[1].Price = dec("999")
	f.catalog.mu.Unlock()

	stored, err := f.sales.GetByID(sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].UnitPrice.Equal(dec("20")))
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	f := newSaleFixture([]*models.Product{product(1, "10", 20)})

	sale, err := f.svc.CreateSale(context.Background(), &CreateSaleRequest{
		Items: []models.LineItem{{ProductID: 1, Quantity: 8}},
	}, 1)
	require.NoError(t, err)

	remaining, _ := f.catalog.GetByID(1)
	require.Equal(t, 12, remaining.Stock)

	require.NoError(t, f.svc.DeleteSale(context.Background(), sale.ID))

	restored, _ := f.catalog.GetByID(1)
	assert.Equal(t, 20, restored.Stock)

	_, err = f.svc.GetSale(sale.ID)
	assert.ErrorIs(t, err, utils.ErrSaleNotFound)
}

func TestDeleteSaleUnknown(t *testing.T) {
	f := newSaleFixture(nil)
	assert.ErrorIs(t, f.svc.DeleteSale(context.Background(), 42), utils.ErrSaleNotFound)
}

func TestConcurrentSalesOnlyOneSucceeds(t *testing.T) {
	// Two sales each want more than half the stock; the conditional
	// decrement lets exactly one commit.
	const stock = 10
	f := newSaleFixture([]*models.Product{product(1, "10", stock)})

	qty := stock/2 + 1
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.CreateSale(context.Background(), &CreateSaleRequest{
				Items: []models.LineItem{{ProductID: 1, Quantity: qty}},
			}, 1)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, utils.ErrStockConflict) || errors.Is(err, utils.ErrInsufficientStock):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)

	remaining, _ := f.catalog.GetByID(1)
	assert.Equal(t, stock-qty, remaining.Stock)
}
