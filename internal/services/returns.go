package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
)

// returnWindow is how long after delivery a return may be requested.
const returnWindow = 7 * 24 * time.Hour

// refunder is the slice of the payment service returns need.
type refunder interface {
	Refund(ctx context.Context, orderID uuid.UUID, amountPaise int64) error
}

type ReturnService struct {
	returnStore *db.ReturnStore
	orderStore  *db.OrderStore
	userStore   *db.UserStore
	payments    refunder
	emailSender OrderEmailSender
	now         func() time.Time
	logger      *slog.Logger
}

func NewReturnService(
	returnStore *db.ReturnStore,
	orderStore *db.OrderStore,
	userStore *db.UserStore,
	payments refunder,
	emailSender OrderEmailSender,
	logger *slog.Logger,
) *ReturnService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &ReturnService{
		returnStore: returnStore,
		orderStore:  orderStore,
		userStore:   userStore,
		payments:    payments,
		emailSender: emailSender,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *ReturnService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type ReturnInput struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	OrderItemID uuid.UUID `json:"order_item_id" validate:"required"`
	Reason      string    `json:"reason" validate:"required,min=5,max=500"`
}

// Request opens a return for one delivered order item within the
// return window.
func (s *ReturnService) Request(ctx context.Context, userID uuid.UUID, input ReturnInput) (*models.ReturnRequest, error) {
	order, err := s.orderStore.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	if order.Status != models.OrderDelivered && order.Status != models.OrderCompleted {
		return nil, apperr.New(apperr.KindBusiness, "only delivered orders can be returned")
	}
	if !s.withinReturnWindow(order) {
		return nil, apperr.New(apperr.KindBusiness, "return window has closed")
	}

	if _, err := s.orderStore.GetItem(ctx, input.OrderID, input.OrderItemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order item not found")
		}
		return nil, fmt.Errorf("failed to load order item: %w", err)
	}

	ret := &models.ReturnRequest{
		OrderID:     input.OrderID,
		OrderItemID: input.OrderItemID,
		UserID:      userID,
		Reason:      input.Reason,
		Status:      models.ReturnRequested,
	}
	if err := s.returnStore.Create(ctx, ret); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.KindConflict, "a return for this item already exists")
		}
		return nil, fmt.Errorf("failed to create return request: %w", err)
	}

	s.loggerFromContext(ctx).Info("return requested",
		"return_id", ret.ID, "order_id", input.OrderID, "item_id", input.OrderItemID)
	return ret, nil
}

// withinReturnWindow measures the window from the delivered timestamp,
// not updated_at, so later transitions (delivered to completed) cannot
// reopen it. Orders delivered before the timestamp existed fall back to
// updated_at.
func (s *ReturnService) withinReturnWindow(order *models.Order) bool {
	anchor := order.UpdatedAt
	if order.DeliveredAt != nil {
		anchor = *order.DeliveredAt
	}
	return s.now().Sub(anchor) <= returnWindow
}

func (s *ReturnService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ReturnRequest, error) {
	returns, err := s.returnStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	return returns, nil
}

func (s *ReturnService) ListByStatus(ctx context.Context, status models.ReturnStatus) ([]models.ReturnRequest, error) {
	returns, err := s.returnStore.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	return returns, nil
}

// Approve moves a requested return to approved, initiates the refund
// for the item's captured price, and restocks the fulfilling stock row.
// Refund and restock run after the transition commits; their failures
// are logged for manual follow-up rather than rolling the return back.
func (s *ReturnService) Approve(ctx context.Context, returnID, actorID uuid.UUID) (*models.ReturnRequest, error) {
	logger := s.loggerFromContext(ctx)

	ret, err := s.getForUpdate(ctx, returnID)
	if err != nil {
		return nil, err
	}

	item, err := s.orderStore.GetItem(ctx, ret.OrderID, ret.OrderItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order item: %w", err)
	}

	if err := s.returnStore.Transition(ctx, returnID, models.ReturnApproved); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, apperr.New(apperr.KindConflict, "return is not awaiting review")
		}
		return nil, fmt.Errorf("failed to approve return: %w", err)
	}
	ret.Status = models.ReturnApproved

	refund := item.UnitPricePaise * int64(item.Quantity)
	if err := s.payments.Refund(ctx, ret.OrderID, refund); err != nil {
		logger.Error("refund initiation failed for approved return",
			"error", err, "return_id", returnID, "order_id", ret.OrderID, "refund_paise", refund)
	}

	if err := s.orderStore.RestockItem(ctx, ret.OrderItemID, actorID, fmt.Sprintf("return:%s", returnID)); err != nil {
		logger.Error("restock failed for approved return",
			"error", err, "return_id", returnID, "item_id", ret.OrderItemID)
	}

	s.notify(ctx, ret, refund)
	logger.Info("return approved", "return_id", returnID, "refund_paise", refund)
	return ret, nil
}

func (s *ReturnService) Reject(ctx context.Context, returnID uuid.UUID) (*models.ReturnRequest, error) {
	ret, err := s.getForUpdate(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if err := s.returnStore.Transition(ctx, returnID, models.ReturnRejected); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, apperr.New(apperr.KindConflict, "return is not awaiting review")
		}
		return nil, fmt.Errorf("failed to reject return: %w", err)
	}
	ret.Status = models.ReturnRejected

	s.notify(ctx, ret, 0)
	s.loggerFromContext(ctx).Info("return rejected", "return_id", returnID)
	return ret, nil
}

// Complete closes an approved return once the item is physically back.
func (s *ReturnService) Complete(ctx context.Context, returnID uuid.UUID) (*models.ReturnRequest, error) {
	ret, err := s.getForUpdate(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if err := s.returnStore.Transition(ctx, returnID, models.ReturnCompleted); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, apperr.New(apperr.KindConflict, "only approved returns can be completed")
		}
		return nil, fmt.Errorf("failed to complete return: %w", err)
	}
	ret.Status = models.ReturnCompleted
	return ret, nil
}

func (s *ReturnService) getForUpdate(ctx context.Context, returnID uuid.UUID) (*models.ReturnRequest, error) {
	ret, err := s.returnStore.GetByID(ctx, returnID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "return not found")
		}
		return nil, fmt.Errorf("failed to load return: %w", err)
	}
	return ret, nil
}

func (s *ReturnService) notify(ctx context.Context, ret *models.ReturnRequest, refundPaise int64) {
	logger := s.loggerFromContext(ctx)

	order, err := s.orderStore.GetByID(ctx, ret.OrderID)
	if err != nil {
		logger.Error("failed to load order for return email", "error", err, "return_id", ret.ID)
		return
	}
	user, err := s.userStore.GetByID(ctx, ret.UserID)
	if err != nil {
		logger.Error("failed to load user for return email", "error", err, "return_id", ret.ID)
		return
	}
	if err := s.emailSender.SendReturnUpdate(ctx, user, order, ret, refundPaise); err != nil {
		logger.Error("failed to send return email", "error", err, "return_id", ret.ID)
	}
}
