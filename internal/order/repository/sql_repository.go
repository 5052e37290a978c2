package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ridloal/toko-storefront/internal/order/domain"
	"github.com/ridloal/toko-storefront/internal/platform/database"
	"github.com/ridloal/toko-storefront/internal/platform/logger"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	BeginTx(ctx context.Context) (database.DBTX, error)

	// Writes that belong to a checkout transaction.
	InsertOrder(ctx context.Context, dbops database.DBTX, order *domain.Order) error
	InsertEvent(ctx context.Context, dbops database.DBTX, event *domain.Event) error

	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]domain.Order, error)
	ListOrdersWithCustomer(ctx context.Context) ([]domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	DeleteOrder(ctx context.Context, id int64) error

	ListUnpublishedEvents(ctx context.Context, limit int) ([]domain.Event, error)
	MarkEventPublished(ctx context.Context, id string, at time.Time) error
}

type sqlOrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &sqlOrderRepository{db: db}
}

func (r *sqlOrderRepository) BeginTx(ctx context.Context) (database.DBTX, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *sqlOrderRepository) InsertOrder(ctx context.Context, dbops database.DBTX, order *domain.Order) error {
	query := `INSERT INTO orders (user_id, items, total_amount, payment_method, payment_status, note, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	items, err := domain.EncodeItems(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	order.CreatedAt = time.Now().UTC()
	if order.PaymentStatus == "" {
		order.PaymentStatus = domain.StatusPendingPayment
	}

	err = dbops.QueryRowContext(ctx, query, order.UserID, items, order.TotalAmount, order.PaymentMethod,
		order.PaymentStatus, order.Note, order.CreatedAt).Scan(&order.ID)
	if err != nil {
		logger.Error("InsertOrder: failed to insert order", err)
		return err
	}
	return nil
}

func (r *sqlOrderRepository) InsertEvent(ctx context.Context, dbops database.DBTX, event *domain.Event) error {
	query := `INSERT INTO order_events (id, order_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := dbops.ExecContext(ctx, query, event.ID, event.OrderID, event.Type, string(event.Payload), event.CreatedAt)
	if err != nil {
		logger.Error("InsertEvent: failed to insert event for order %d", err, event.OrderID)
		return err
	}
	return nil
}

// Customer columns come from a LEFT JOIN, so they are NULL for deleted accounts.
const orderSelect = `SELECT o.id, o.user_id, o.items, o.total_amount, o.payment_method, o.payment_status, o.note, o.created_at,
       u.email, u.phone_number
  FROM orders o
  LEFT JOIN users u ON u.id = o.user_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o      domain.Order
		items  string
		total  sql.NullInt64
		status string
		email  sql.NullString
		phone  sql.NullString
	)
	if err := row.Scan(&o.ID, &o.UserID, &items, &total, &o.PaymentMethod, &status, &o.Note, &o.CreatedAt, &email, &phone); err != nil {
		return nil, err
	}
	// Legacy rows may have no total.
	o.TotalAmount = total.Int64
	o.PaymentStatus = domain.PaymentStatus(status)
	o.CustomerEmail = email.String
	o.CustomerPhone = phone.String

	decoded, err := domain.DecodeItems(items)
	if err != nil {
		logger.Warn("order %d has unreadable items: %v", o.ID, err)
		decoded = []domain.OrderItem{}
	}
	o.Items = decoded
	return &o, nil
}

func (r *sqlOrderRepository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		logger.Error("GetOrderByID: query failed", err)
		return nil, err
	}
	return o, nil
}

func (r *sqlOrderRepository) ListOrdersByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	return r.list(ctx, "ListOrdersByUserID", orderSelect+` WHERE o.user_id = $1 ORDER BY o.id DESC`, userID)
}

func (r *sqlOrderRepository) ListOrdersWithCustomer(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, "ListOrdersWithCustomer", orderSelect+` ORDER BY o.id DESC`)
}

func (r *sqlOrderRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error(op+": query failed", err)
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			logger.Error(op+": scan failed", err)
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *sqlOrderRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		logger.Error("UpdatePaymentStatus: exec failed", err)
		return err
	}
	return expectOneRow(res, id)
}

// DeleteOrder also removes the order's outbox events through the foreign key cascade.
func (r *sqlOrderRepository) DeleteOrder(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		logger.Error("DeleteOrder: exec failed", err)
		return err
	}
	return expectOneRow(res, id)
}

func (r *sqlOrderRepository) ListUnpublishedEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	query := `SELECT id, order_id, event_type, payload, created_at FROM order_events
              WHERE published_at IS NULL ORDER BY created_at ASC, order_id ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		logger.Error("ListUnpublishedEvents: query failed", err)
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var (
			e       domain.Event
			payload string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Type, &payload, &e.CreatedAt); err != nil {
			logger.Error("ListUnpublishedEvents: scan failed", err)
			return nil, err
		}
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *sqlOrderRepository) MarkEventPublished(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE order_events SET published_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		logger.Error("MarkEventPublished: exec failed for event %s", err, id)
		return err
	}
	return nil
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	return nil
}
