package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/groupmeal/groupmeal-backend/internal/domain/order"
	"github.com/groupmeal/groupmeal-backend/internal/domain/payment"
	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/shopspring/decimal"
)

var _ order.OrderService = (*OrderServiceImpl)(nil)

type OrderServiceImpl struct {
	tx         database.TxRunner
	orderRepo  order.OrderRepository
	intentRepo payment.IntentRepository
	provider   payment.Provider
	fees       config.CheckoutConfig
	currency   string
}

func NewOrderService(
	tx database.TxRunner,
	orderRepo order.OrderRepository,
	intentRepo payment.IntentRepository,
	provider payment.Provider,
	fees config.CheckoutConfig,
	currency string,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		tx:         tx,
		orderRepo:  orderRepo,
		intentRepo: intentRepo,
		provider:   provider,
		fees:       fees,
		currency:   currency,
	}
}

// Checkout implements order.OrderService.
// The order is stored first so its id can key the processor intent; a processor failure marks the order failed.
func (s *OrderServiceImpl) Checkout(ctx context.Context, u user.User, req order.CheckoutRequest) (order.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return order.CheckoutResponse{}, err
	}

	deliveryFee := decimal.Zero
	if req.DeliveryFee != nil {
		deliveryFee = *req.DeliveryFee
	}
	b := order.ComputeBreakdown(req.Items, s.fees.ServiceFeeRate, s.fees.PlatformFee, deliveryFee)

	o, err := s.orderRepo.Create(ctx, order.Order{
		UserID:          u.ID,
		CompanyID:       u.CompanyID,
		SessionID:       req.SessionID,
		RestaurantID:    req.RestaurantID,
		RestaurantName:  req.RestaurantName,
		Items:           req.Items,
		FoodAmount:      b.FoodAmount,
		ServiceFee:      b.ServiceFee,
		PlatformFee:     b.PlatformFee,
		DeliveryFee:     b.DeliveryFee,
		TotalAmount:     b.Total,
		Currency:        s.currency,
		PaymentStatus:   order.PaymentPending,
		DeliveryStatus:  order.DeliveryNone,
		DeliveryQuoteID: req.QuoteID,
		PickupAddress:   req.PickupAddress,
		DropoffAddress:  req.DropoffAddress,
		DropoffName:     req.DropoffName,
		DropoffPhone:    req.DropoffPhone,
	})
	if err != nil {
		return order.CheckoutResponse{}, err
	}

	pi, err := s.provider.CreateIntent(ctx, payment.CreateIntentParams{
		OrderID:        o.ID,
		Amount:         o.TotalAmount,
		Currency:       o.Currency,
		Description:    fmt.Sprintf("%s order %s", o.RestaurantName, o.ID),
		IdempotencyKey: "checkout_" + o.ID,
		Metadata: map[string]string{
			"order_id": o.ID,
			"user_id":  u.ID,
		},
	})
	if err != nil {
		slog.Error("payment intent creation failed", "order_id", o.ID, "error", err)
		if uerr := s.orderRepo.UpdatePaymentStatus(ctx, o.ID, order.PaymentFailed); uerr != nil {
			slog.Error("failed to mark order payment failed", "order_id", o.ID, "error", uerr)
		}
		return order.CheckoutResponse{}, fmt.Errorf("%w: %v", order.ErrPaymentIntentFail, err)
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.SetPaymentIntent(txCtx, o.ID, pi.ID); err != nil {
			return err
		}
		status := pi.Status
		if status == "" {
			status = payment.IntentRequiresPayment
		}
		return s.intentRepo.Create(txCtx, payment.Intent{
			ID:           pi.ID,
			OrderID:      o.ID,
			Amount:       o.TotalAmount,
			Currency:     o.Currency,
			Status:       status,
			ClientSecret: pi.ClientSecret,
		})
	})
	if err != nil {
		return order.CheckoutResponse{}, err
	}
	o.PaymentIntentID = &pi.ID

	slog.Info("checkout started", "order_id", o.ID, "user_id", u.ID, "total", o.TotalAmount.StringFixed(2), "payment_intent_id", pi.ID)
	return order.CheckoutResponse{
		Order:        order.ToResponse(o),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// ListMine implements order.OrderService.
func (s *OrderServiceImpl) ListMine(ctx context.Context, u user.User) ([]order.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]order.OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, order.ToResponse(o))
	}
	return resp, nil
}

// GetByID implements order.OrderService.
func (s *OrderServiceImpl) GetByID(ctx context.Context, u user.User, id string) (order.OrderResponse, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return order.OrderResponse{}, err
	}
	if !o.AccessibleBy(u) {
		return order.OrderResponse{}, order.ErrOrderAccessDenied
	}
	return order.ToResponse(o), nil
}

// ClearAll implements order.OrderService.
func (s *OrderServiceImpl) ClearAll(ctx context.Context, admin user.User) (order.ClearResponse, error) {
	if !admin.IsAdmin() {
		return order.ClearResponse{}, order.ErrClearForbidden
	}

	n, err := s.orderRepo.DeleteAll(ctx)
	if err != nil {
		return order.ClearResponse{}, err
	}

	slog.Warn("all orders cleared", "deleted", n, "by", admin.ID)
	return order.ClearResponse{Deleted: n}, nil
}
