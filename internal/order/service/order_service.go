package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	cDomain "github.com/ridloal/toko-storefront/internal/cart/domain"
	"github.com/ridloal/toko-storefront/internal/cart/session"
	"github.com/ridloal/toko-storefront/internal/order/domain"
	"github.com/ridloal/toko-storefront/internal/order/repository"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
	pRepo "github.com/ridloal/toko-storefront/internal/product/repository"
)

type OrderService interface {
	Checkout(ctx context.Context, userID int64, paymentMethod string) (*domain.Order, error)
	PlaceOrder(ctx context.Context, userID int64, cart *cDomain.Cart, paymentMethod string) (*domain.Order, error)

	ListCustomerOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error)
	PurgeOrder(ctx context.Context, id int64) error
	ExportOrdersCSV(ctx context.Context, w io.Writer) error
}

type orderServiceImpl struct {
	orderRepo            repository.OrderRepository
	productRepo          pRepo.ProductRepository
	sessions             session.Store
	defaultPaymentMethod string
}

func NewOrderService(or repository.OrderRepository, pr pRepo.ProductRepository, sessions session.Store, defaultPaymentMethod string) OrderService {
	if defaultPaymentMethod == "" {
		defaultPaymentMethod = domain.PaymentQRIS
	}
	return &orderServiceImpl{
		orderRepo:            or,
		productRepo:          pr,
		sessions:             sessions,
		defaultPaymentMethod: defaultPaymentMethod,
	}
}

// Checkout turns the caller's session cart into an order and empties the cart on success.
// On any failure the cart is left as it was.
func (s *orderServiceImpl) Checkout(ctx context.Context, userID int64, paymentMethod string) (*domain.Order, error) {
	cart, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not load cart: %w", err)
	}

	order, err := s.PlaceOrder(ctx, userID, cart, paymentMethod)
	if err != nil {
		return nil, err
	}

	// The order is committed at this point; a stale cart is the lesser problem.
	if err := s.sessions.Clear(ctx, userID); err != nil {
		logger.Warn("order %s created but cart for user %d was not cleared: %v", order.OrderCode, userID, err)
	}
	return order, nil
}

func (s *orderServiceImpl) PlaceOrder(ctx context.Context, userID int64, cart *cDomain.Cart, paymentMethod string) (*domain.Order, error) {
	if cart == nil {
		return nil, ErrEmptyCart
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		paymentMethod = s.defaultPaymentMethod
	}

	items := make([]domain.OrderItem, 0, len(lines))
	var total int64

	// Validate everything before touching stock.
	for _, e := range lines {
		p, err := s.productRepo.GetProductByID(ctx, e.ProductID)
		if err != nil {
			if errors.Is(err, pRepo.ErrProductNotFound) {
				logger.Debug("checkout for user %d rejected: product %d missing", userID, e.ProductID)
				return nil, &ProductNotFoundError{ProductID: e.ProductID}
			}
			return nil, s.persistenceFailure(userID, "load product", err)
		}
		if !p.InStock(e.Quantity) {
			logger.Debug("checkout for user %d rejected: product %d has %d, wants %d", userID, p.ID, p.Stock, e.Quantity)
			return nil, &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: e.Quantity}
		}
		items = append(items, domain.OrderItem{Name: p.Name, Price: p.Price, Quantity: e.Quantity, Note: e.Note})
		total += p.Price * int64(e.Quantity)
	}

	order := &domain.Order{
		UserID:        userID,
		Items:         items,
		TotalAmount:   total,
		PaymentMethod: paymentMethod,
		PaymentStatus: domain.StatusPendingPayment,
		Note:          cart.Note,
	}

	if err := s.commit(ctx, order, lines); err != nil {
		return nil, err
	}

	logger.Info("order %s created for user %d, total %d, unique amount %d",
		order.OrderCode, userID, order.TotalAmount, order.UniquePaymentAmount)
	return order, nil
}

// commit decrements stock, stores the order and its outbox event in one transaction.
func (s *orderServiceImpl) commit(ctx context.Context, order *domain.Order, lines []cDomain.Entry) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return s.persistenceFailure(order.UserID, "begin transaction", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	for i, e := range lines {
		if err := s.productRepo.DecrementStock(ctx, tx, e.ProductID, e.Quantity); err != nil {
			if errors.Is(err, pRepo.ErrInsufficientStock) {
				// Someone else took the stock between validation and now.
				_ = tx.Rollback()
				done = true
				return s.stockConflict(ctx, e, order.Items[i].Name)
			}
			return s.persistenceFailure(order.UserID, "decrement stock", err)
		}
	}

	if err := s.orderRepo.InsertOrder(ctx, tx, order); err != nil {
		return s.persistenceFailure(order.UserID, "insert order", err)
	}
	order.Enrich()

	event, err := newOrderCreatedEvent(order)
	if err != nil {
		return s.persistenceFailure(order.UserID, "encode event", err)
	}
	if err := s.orderRepo.InsertEvent(ctx, tx, event); err != nil {
		return s.persistenceFailure(order.UserID, "insert event", err)
	}

	if err := tx.Commit(); err != nil {
		return s.persistenceFailure(order.UserID, "commit", err)
	}
	done = true
	return nil
}

// stockConflict reports a lost race. Must be called after the transaction is closed.
func (s *orderServiceImpl) stockConflict(ctx context.Context, e cDomain.Entry, name string) error {
	p, err := s.productRepo.GetProductByID(ctx, e.ProductID)
	if err != nil {
		if errors.Is(err, pRepo.ErrProductNotFound) {
			return &ProductNotFoundError{ProductID: e.ProductID}
		}
		return &InsufficientStockError{ProductID: e.ProductID, Name: name, Requested: e.Quantity}
	}
	return &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: e.Quantity}
}

func (s *orderServiceImpl) persistenceFailure(userID int64, op string, err error) error {
	logger.Error("checkout for user %d failed at %s", err, userID, op)
	return &PersistenceError{Op: op, Err: err}
}

func newOrderCreatedEvent(order *domain.Order) (*domain.Event, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}
	return &domain.Event{
		ID:      uuid.NewString(),
		OrderID: order.ID,
		Type:    domain.EventOrderCreated,
		Payload: payload,
	}, nil
}

// --- Read side ---

func (s *orderServiceImpl) ListCustomerOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.orderRepo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Enrich()
		// Customers see their own orders; customer columns are admin-only.
		orders[i].CustomerEmail = ""
		orders[i].CustomerPhone = ""
	}
	return orders, nil
}

func (s *orderServiceImpl) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orderRepo.ListOrdersWithCustomer(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		enrichForAdmin(&orders[i])
	}
	return orders, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	enrichForAdmin(o)
	return o, nil
}

func enrichForAdmin(o *domain.Order) {
	o.Enrich()
	if o.CustomerEmail == "" {
		o.CustomerEmail = domain.UnknownCustomerEmail
	}
	if o.CustomerPhone == "" {
		o.CustomerPhone = domain.UnknownCustomerPhone
	}
}

// --- Administration ---

func (s *orderServiceImpl) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	status = domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.orderRepo.UpdatePaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	logger.Info("order %d payment status set to %s", id, status)
	return s.GetOrder(ctx, id)
}

func (s *orderServiceImpl) PurgeOrder(ctx context.Context, id int64) error {
	if err := s.orderRepo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	logger.Info("order %d purged", id)
	return nil
}
