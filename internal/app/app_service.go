// Package app hosts the application service: the single owner of the
// in-memory store state and the optimistic persistence queue behind it.
//
// Every mutation follows the same discipline: apply to memory first, answer
// the caller immediately, then persist asynchronously in issue order.
// Persistence failures are logged and dropped — memory is never rolled back.
package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"candyshop/internal/ai"
	"candyshop/internal/core"
	"candyshop/internal/events"
	"candyshop/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	bootTimeout    = 10 * time.Second
	persistTimeout = 15 * time.Second

	// queueDepth bounds the persistence backlog. Mutations block once the
	// backlog is full rather than losing writes.
	queueDepth = 256
)

type appService struct {
	mu       sync.Mutex
	products []core.Product
	sales    []core.Sale
	cart     *core.Cart
	view     core.StoreView

	store    store.Store
	agent    *ai.Agent
	producer *events.Producer
	log      *zap.Logger

	adminUser string
	adminPass string

	// Single-worker queue: one goroutine drains it, so persistence calls
	// run strictly in the order their mutations were applied.
	queue chan func(context.Context)
	done  chan struct{}
}

// New builds the application service, loading the initial Product and Sale
// collections from the given store and starting the persistence worker.
func New(st store.Store, agent *ai.Agent, producer *events.Producer, adminUser, adminPass string, log *zap.Logger) (ApplicationService, error) {
	if agent == nil {
		agent = ai.NewAgent("")
	}
	if adminUser == "" {
		adminUser = "admin"
	}
	if adminPass == "" {
		adminPass = "admin"
	}

	ctx, cancel := context.WithTimeout(context.Background(), bootTimeout)
	defer cancel()

	products, err := st.FetchProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	sales, err := st.FetchSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	s := &appService{
		products:  products,
		sales:     sales,
		cart:      core.NewCart(),
		view:      core.ViewDashboard,
		store:     st,
		agent:     agent,
		producer:  producer,
		log:       log,
		adminUser: adminUser,
		adminPass: adminPass,
		queue:     make(chan func(context.Context), queueDepth),
		done:      make(chan struct{}),
	}
	go s.runPersistence()

	log.Info("application service ready",
		zap.Int("products", len(products)),
		zap.Int("sales", len(sales)),
		zap.Bool("remote_backend", st.Remote()))
	return s, nil
}

func (s *appService) runPersistence() {
	defer close(s.done)
	for fn := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		fn(ctx)
		cancel()
	}
}

// Close drains the persistence queue and stops the worker. Mutations issued
// after Close panic; it is called once, at shutdown.
func (s *appService) Close() {
	close(s.queue)
	<-s.done
}

func (s *appService) enqueue(op string, fn func(context.Context) error) {
	s.queue <- func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			s.log.Error("persistence failed", zap.String("op", op), zap.Error(err))
		}
	}
}

// persistLocked schedules persistence for a mutation that was just applied.
// Must be called with s.mu held so the local-backend snapshot matches the
// state the caller observed. On the remote backend the per-entity calls run
// instead; on the local backend the whole state is mirrored.
func (s *appService) persistLocked(op string, remote ...func(context.Context) error) {
	if s.store.Remote() {
		for _, fn := range remote {
			s.enqueue(op, fn)
		}
		return
	}
	products := s.copyProductsLocked()
	sales := s.copySalesLocked()
	s.enqueue(op, func(ctx context.Context) error {
		return s.store.MirrorAll(ctx, products, sales)
	})
}

func (s *appService) copyProductsLocked() []core.Product {
	out := make([]core.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *appService) copySalesLocked() []core.Sale {
	out := make([]core.Sale, len(s.sales))
	copy(out, s.sales)
	return out
}

// ── Inventory ────────────────────────────────────────────────────────────

func (s *appService) ListProducts() []core.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyProductsLocked()
}

func parseProductRequest(req ProductRequest) (core.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return core.Product{}, fmt.Errorf("product name is required")
	}
	price, err := core.ParseAmount(req.Price)
	if err != nil {
		return core.Product{}, fmt.Errorf("invalid price %q: %w", req.Price, err)
	}
	cost, err := core.ParseAmount(req.Cost)
	if err != nil {
		return core.Product{}, fmt.Errorf("invalid cost %q: %w", req.Cost, err)
	}
	stock := req.Stock
	if stock < 0 {
		stock = 0
	}
	return core.Product{
		Name:     name,
		Category: strings.TrimSpace(req.Category),
		Price:    price,
		Cost:     cost,
		Stock:    stock,
		ImageURL: strings.TrimSpace(req.ImageURL),
	}, nil
}

func (s *appService) AddProduct(req ProductRequest) (core.Product, error) {
	p, err := parseProductRequest(req)
	if err != nil {
		return core.Product{}, err
	}
	p.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = append(s.products, p)
	s.persistLocked("create product", func(ctx context.Context) error {
		return s.store.CreateProduct(ctx, p)
	})
	s.publishProductUpdated(p)
	return p, nil
}

func (s *appService) UpdateProduct(id string, req ProductRequest) (core.Product, error) {
	p, err := parseProductRequest(req)
	if err != nil {
		return core.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfProductLocked(id)
	if i < 0 {
		return core.Product{}, ErrProductNotFound
	}
	p.ID = id
	if p.ImageURL == "" {
		p.ImageURL = s.products[i].ImageURL
	}
	s.products[i] = p

	s.persistLocked("update product", func(ctx context.Context) error {
		return s.store.UpdateProduct(ctx, p)
	})
	s.publishProductUpdated(p)
	return p, nil
}

func (s *appService) DeleteProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfProductLocked(id)
	if i < 0 {
		return ErrProductNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	s.cart.RemoveItem(id)

	s.persistLocked("delete product", func(ctx context.Context) error {
		return s.store.DeleteProduct(ctx, id)
	})
	return nil
}

func (s *appService) ApplyStockLevels(items []StockLevel) error {
	if len(items) == 0 {
		return fmt.Errorf("no stock levels given")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyStockLevelsLocked(items)
}

// applyStockLevelsLocked mutates every known product in input order, then
// schedules one persistence call per product, preserving that order. Unknown
// product IDs are skipped with a warning, not treated as an error.
func (s *appService) applyStockLevelsLocked(items []StockLevel) error {
	type update struct {
		productID string
		stock     int
	}
	var applied []update
	for _, it := range items {
		i := s.indexOfProductLocked(it.ProductID)
		if i < 0 {
			s.log.Warn("stock update for unknown product", zap.String("product_id", it.ProductID))
			continue
		}
		stock := it.Stock
		if stock < 0 {
			stock = 0
		}
		s.products[i].Stock = stock
		applied = append(applied, update{productID: it.ProductID, stock: stock})
	}
	if len(applied) == 0 {
		return ErrProductNotFound
	}

	remote := make([]func(context.Context) error, 0, len(applied))
	for _, u := range applied {
		u := u
		remote = append(remote, func(ctx context.Context) error {
			return s.store.UpdateStock(ctx, u.productID, u.stock)
		})
	}
	s.persistLocked("update stock", remote...)
	return nil
}

func (s *appService) UploadProductImage(ctx context.Context, productID, filename, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	if s.indexOfProductLocked(productID) < 0 {
		s.mu.Unlock()
		return "", ErrProductNotFound
	}
	s.mu.Unlock()

	// The upload itself is awaited: the caller needs the URL, and upload
	// failures must surface instead of vanishing into the queue.
	url, err := s.store.UploadImage(ctx, filename, contentType, data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfProductLocked(productID)
	if i < 0 {
		// Product deleted while the upload was in flight.
		return "", ErrProductNotFound
	}
	s.products[i].ImageURL = url
	p := s.products[i]

	s.persistLocked("attach product image", func(ctx context.Context) error {
		return s.store.UpdateProduct(ctx, p)
	})
	return url, nil
}

func (s *appService) StockAlert() StockAlertResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StockAlertResult{
		LowStockCount: core.LowStockCount(s.products),
		Alert:         core.LowStockAlert(s.products),
	}
}

func (s *appService) indexOfProductLocked(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

// ── Register ─────────────────────────────────────────────────────────────

func (s *appService) GetCart() CartResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartResult{
		Items:         s.cart.Items(),
		PaymentMethod: s.cart.PaymentMethod(),
		Observation:   s.cart.Observation(),
		DeliveryCost:  s.cart.DeliveryCost(),
	}
}

func (s *appService) AddToCart(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfProductLocked(productID)
	if i < 0 {
		return ErrProductNotFound
	}
	s.cart.AddItem(s.products[i])
	return nil
}

func (s *appService) ChangeCartQuantity(productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.ChangeQuantity(productID, delta, func(id string) int {
		if i := s.indexOfProductLocked(id); i >= 0 {
			return s.products[i].Stock
		}
		return 0
	})
	return nil
}

func (s *appService) RemoveFromCart(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveItem(productID)
	return nil
}

func (s *appService) Checkout(req CheckoutRequest) (*core.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.PaymentMethod != "" {
		m, err := core.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			return nil, err
		}
		s.cart.SetPaymentMethod(m)
	}
	s.cart.SetObservation(req.Observation)
	s.cart.SetDeliveryCost(req.DeliveryCost)

	sale := s.cart.Checkout()
	if sale == nil {
		return nil, nil
	}
	s.sales = append(s.sales, *sale)

	// Decrement stock for every sold line, clamped at zero, in line order.
	remote := make([]func(context.Context) error, 0, len(sale.Items)+1)
	saleCopy := *sale
	remote = append(remote, func(ctx context.Context) error {
		return s.store.CreateSale(ctx, saleCopy)
	})
	for _, it := range sale.Items {
		i := s.indexOfProductLocked(it.Product.ID)
		if i < 0 {
			continue
		}
		stock := s.products[i].Stock - it.Quantity
		if stock < 0 {
			stock = 0
		}
		s.products[i].Stock = stock
		productID := it.Product.ID
		remote = append(remote, func(ctx context.Context) error {
			return s.store.UpdateStock(ctx, productID, stock)
		})
	}
	s.persistLocked("record sale", remote...)

	s.enqueue("publish sale event", func(ctx context.Context) error {
		s.producer.SaleRecorded(saleCopy)
		return nil
	})

	s.log.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("payment_method", string(sale.PaymentMethod)),
		zap.String("total", sale.Total.StringFixed(2)))
	return sale, nil
}

// ── Sales ────────────────────────────────────────────────────────────────

func (s *appService) ListSales() []core.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copySalesLocked()
}

func (s *appService) ResolveSalePayment(saleID, method string) (core.Sale, error) {
	m, err := core.ParsePaymentMethod(method)
	if err != nil {
		return core.Sale{}, err
	}
	if !m.IsSettled() {
		return core.Sale{}, fmt.Errorf("cannot resolve a sale to %q", method)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sales {
		if s.sales[i].ID != saleID {
			continue
		}
		if s.sales[i].PaymentMethod != core.PaymentPending {
			// Already settled: the transition happens exactly once.
			return s.sales[i], nil
		}
		s.sales[i].PaymentMethod = m
		updated := s.sales[i]
		s.persistLocked("resolve sale payment", func(ctx context.Context) error {
			return s.store.UpdateSalePayment(ctx, saleID, m)
		})
		return updated, nil
	}
	return core.Sale{}, ErrSaleNotFound
}

func (s *appService) BuildReport(dateRange, paymentFilter string) (core.Report, error) {
	r, err := core.ParseDateRange(dateRange)
	if err != nil {
		return core.Report{}, err
	}
	f, err := core.ParsePaymentFilter(paymentFilter)
	if err != nil {
		return core.Report{}, err
	}

	s.mu.Lock()
	sales := s.copySalesLocked()
	s.mu.Unlock()

	return core.BuildReport(sales, r, f, time.Now()), nil
}

// ── Assistant ────────────────────────────────────────────────────────────

func (s *appService) AskInsights(ctx context.Context, question string) string {
	s.mu.Lock()
	products := s.copyProductsLocked()
	sales := s.copySalesLocked()
	s.mu.Unlock()

	return s.agent.Ask(ctx, products, sales, question)
}

func (s *appService) ProposeRestock(ctx context.Context) (*core.RestockProposal, error) {
	s.mu.Lock()
	products := s.copyProductsLocked()
	s.mu.Unlock()

	return s.agent.ProposeRestock(ctx, products)
}

func (s *appService) ApplyRestock(p *core.RestockProposal) error {
	if p == nil {
		return fmt.Errorf("no restock proposal given")
	}
	p.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := p.Validate(s.products); err != nil {
		return err
	}
	levels := make([]StockLevel, 0, len(p.Items))
	for _, it := range p.Items {
		levels = append(levels, StockLevel{ProductID: it.ProductID, Stock: it.SuggestedStock})
	}
	return s.applyStockLevelsLocked(levels)
}

// ── Shell ────────────────────────────────────────────────────────────────

func (s *appService) ActiveView() core.StoreView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *appService) SetActiveView(view string) error {
	v, err := core.ParseStoreView(view)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	return nil
}

// AuthenticateUser checks the app_users directory first. The hardcoded admin
// pair works whether or not the directory is reachable, so the shopkeeper is
// never locked out by a backend outage.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)

	u, err := s.store.FindAppUser(ctx, username)
	switch {
	case err == nil:
		if passwordMatches(u.Password, password) {
			return &Session{Username: u.Username, Role: "user"}, nil
		}
		return nil, ErrInvalidCredentials
	case errors.Is(err, store.ErrUserNotFound):
		if username == s.adminUser && password == s.adminPass {
			return &Session{Username: username, Role: "admin"}, nil
		}
		return nil, ErrInvalidCredentials
	default:
		s.log.Warn("user directory unavailable", zap.Error(err))
		if username == s.adminUser && password == s.adminPass {
			return &Session{Username: username, Role: "admin"}, nil
		}
		return nil, ErrBackendUnavailable
	}
}

// passwordMatches compares the stored credential against the given password.
// Stored values are bcrypt hashes for current rows and plaintext for legacy
// ones, distinguished by the bcrypt prefix.
func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func (s *appService) publishProductUpdated(p core.Product) {
	s.enqueue("publish product event", func(ctx context.Context) error {
		s.producer.ProductUpdated(p)
		return nil
	})
}
