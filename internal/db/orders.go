package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// CouponUse ties a checkout to the coupon it redeems.
type CouponUse struct {
	CouponID     uuid.UUID
	UserID       uuid.UUID
	PerUserLimit int
}

// StockDecrement removes quantity from one stock row during checkout.
type StockDecrement struct {
	StockID  uuid.UUID
	Quantity int
}

// CreateCheckout persists the order header, line items, address
// snapshots, stock decrements (with audit rows), and the coupon usage
// increment in a single transaction. Stock and coupon caps are enforced
// with conditional updates so two concurrent checkouts cannot both take
// the last unit or the last coupon use.
func (s *OrderStore) CreateCheckout(ctx context.Context, order *models.Order, decrements []StockDecrement, coupon *CouponUse) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		shippingJSON, err := json.Marshal(order.ShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to encode shipping snapshot: %w", err)
		}
		billingJSON, err := json.Marshal(order.BillingAddress)
		if err != nil {
			return fmt.Errorf("failed to encode billing snapshot: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, status, subtotal_paise, discount_paise, shipping_paise,
				tax_paise, total_paise, coupon_id, coupon_code, payment_method,
				shipping_address, billing_address)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, order_number, created_at, updated_at
		`, order.UserID, order.Status, order.SubtotalPaise, order.DiscountPaise, order.ShippingPaise,
			order.TaxPaise, order.TotalPaise, order.CouponID,
			pgtype.Text{String: order.CouponCode, Valid: order.CouponCode != ""},
			order.PaymentMethod, shippingJSON, billingJSON,
		).Scan(&order.ID, &order.OrderNumber, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO order_items (order_id, product_id, variant_id, product_name,
					quantity, unit_price_paise, stock_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
			`, item.OrderID, item.ProductID, item.VariantID, item.ProductName,
				item.Quantity, item.UnitPricePaise, item.StockID).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		for _, dec := range decrements {
			tag, err := tx.Exec(ctx, `
				UPDATE stock SET quantity = quantity - $1, updated_at = NOW()
				WHERE id = $2 AND quantity >= $1
			`, dec.Quantity, dec.StockID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrInsufficientStock
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO stock_adjustments (stock_id, delta, reason, actor_id)
				VALUES ($1, $2, $3, $4)
			`, dec.StockID, -dec.Quantity, "order:"+order.ID.String(), order.UserID); err != nil {
				return fmt.Errorf("failed to record stock adjustment: %w", err)
			}
		}

		if coupon != nil {
			tag, err := tx.Exec(ctx, `
				UPDATE coupons SET usage_count = usage_count + 1
				WHERE id = $1 AND active AND (max_usage = 0 OR usage_count < max_usage)
			`, coupon.CouponID)
			if err != nil {
				return fmt.Errorf("failed to increment coupon usage: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrCouponExhausted
			}

			if coupon.PerUserLimit > 0 {
				var used int
				if err := tx.QueryRow(ctx, `
					SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2
				`, coupon.CouponID, coupon.UserID).Scan(&used); err != nil {
					return fmt.Errorf("failed to count coupon redemptions: %w", err)
				}
				if used >= coupon.PerUserLimit {
					return ErrCouponPerUserLimit
				}
			}

			if _, err := tx.Exec(ctx, `
				INSERT INTO coupon_redemptions (coupon_id, user_id, order_id)
				VALUES ($1, $2, $3)
			`, coupon.CouponID, coupon.UserID, order.ID); err != nil {
				return fmt.Errorf("failed to record coupon redemption: %w", err)
			}
		}

		return nil
	})
}

const orderColumns = `id, order_number, user_id, status, subtotal_paise, discount_paise,
	shipping_paise, tax_paise, total_paise, coupon_id, coupon_code, payment_method,
	shipping_address, billing_address, delivered_at, created_at, updated_at`

func (s *OrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(s.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}
	if err := s.populateItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.populateItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListAwaitingShipment returns a bounded batch of processing orders
// that have no shipment row yet, oldest first.
func (s *OrderStore) ListAwaitingShipment(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders o
		WHERE o.status = $1 AND NOT EXISTS (SELECT 1 FROM shipments sh WHERE sh.order_id = o.id)
		ORDER BY o.created_at
		LIMIT $2
	`, models.OrderProcessing, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.populateItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// transition moves an order between statuses with a guard on the
// current status. Zero rows affected means the order was not in an
// expected source status.
func (s *OrderStore) transition(ctx context.Context, q Querier, orderID uuid.UUID, to models.OrderStatus, from ...models.OrderStatus) error {
	statuses := make([]string, len(from))
	for i, st := range from {
		statuses[i] = string(st)
	}
	tag, err := q.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`, to, orderID, statuses)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: to %s", ErrInvalidStatusTransition, to)
	}
	return nil
}

func (s *OrderStore) MarkProcessing(ctx context.Context, q Querier, orderID uuid.UUID) error {
	return s.transition(ctx, q, orderID, models.OrderProcessing, models.OrderPending)
}

func (s *OrderStore) MarkShipped(ctx context.Context, q Querier, orderID uuid.UUID) error {
	return s.transition(ctx, q, orderID, models.OrderShipped, models.OrderProcessing)
}

// MarkDelivered also stamps delivered_at, which anchors the return window.
func (s *OrderStore) MarkDelivered(ctx context.Context, orderID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET status = $1, delivered_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, models.OrderDelivered, orderID, models.OrderShipped)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: to %s", ErrInvalidStatusTransition, models.OrderDelivered)
	}
	return nil
}

func (s *OrderStore) MarkCompleted(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, s.pool, orderID, models.OrderCompleted, models.OrderDelivered)
}

// Cancel transitions a pending order to cancelled and restocks every
// line against the stock row that fulfilled it.
func (s *OrderStore) Cancel(ctx context.Context, orderID, actorID uuid.UUID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.transition(ctx, tx, orderID, models.OrderCancelled, models.OrderPending); err != nil {
			return err
		}
		return restockOrderItems(ctx, tx, orderID, actorID, "order_cancelled:"+orderID.String())
	})
}

func restockOrderItems(ctx context.Context, tx pgx.Tx, orderID, actorID uuid.UUID, reason string) error {
	rows, err := tx.Query(ctx, `
		SELECT stock_id, quantity FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return err
	}
	type line struct {
		stockID  uuid.UUID
		quantity int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.stockID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			UPDATE stock SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2
		`, l.quantity, l.stockID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_adjustments (stock_id, delta, reason, actor_id)
			VALUES ($1, $2, $3, $4)
		`, l.stockID, l.quantity, reason, actorID); err != nil {
			return err
		}
	}
	return nil
}

// RestockItem puts one order item's quantity back, used by approved returns.
func (s *OrderStore) RestockItem(ctx context.Context, itemID, actorID uuid.UUID, reason string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var stockID uuid.UUID
		var quantity int
		if err := tx.QueryRow(ctx, `
			SELECT stock_id, quantity FROM order_items WHERE id = $1
		`, itemID).Scan(&stockID, &quantity); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE stock SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2
		`, quantity, stockID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO stock_adjustments (stock_id, delta, reason, actor_id)
			VALUES ($1, $2, $3, $4)
		`, stockID, quantity, reason, actorID)
		return err
	})
}

func (s *OrderStore) GetItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.pool.QueryRow(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, quantity, unit_price_paise, stock_id
		FROM order_items WHERE id = $1 AND order_id = $2
	`, itemID, orderID).Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
		&item.ProductName, &item.Quantity, &item.UnitPricePaise, &item.StockID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *OrderStore) populateItems(ctx context.Context, order *models.Order) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, quantity, unit_price_paise, stock_id
		FROM order_items WHERE order_id = $1
	`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
			&item.ProductName, &item.Quantity, &item.UnitPricePaise, &item.StockID); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrder(row interface{ Scan(dest ...any) error }) (*models.Order, error) {
	var order models.Order
	var couponCode pgtype.Text
	var shippingJSON, billingJSON []byte
	if err := row.Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.Status,
		&order.SubtotalPaise, &order.DiscountPaise, &order.ShippingPaise, &order.TaxPaise,
		&order.TotalPaise, &order.CouponID, &couponCode, &order.PaymentMethod,
		&shippingJSON, &billingJSON, &order.DeliveredAt, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if couponCode.Valid {
		order.CouponCode = couponCode.String
	}
	if len(shippingJSON) > 0 {
		if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if len(billingJSON) > 0 {
		if err := json.Unmarshal(billingJSON, &order.BillingAddress); err != nil {
			return nil, err
		}
	}
	return &order, nil
}
