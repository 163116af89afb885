// Package checkout orchestrates the order submission flow: profile check,
// live stock validation, transactional order creation, payment preference
// creation, cart clearing, and order annotation. Each step's failure
// short-circuits the rest with an error from the taxonomy in errors.go.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"petshop-service/config"
	"petshop-service/internal/cart"
	"petshop-service/internal/models"
	"petshop-service/internal/payment"
	"petshop-service/internal/pricing"
	"petshop-service/internal/store"
	"petshop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog is the slice of the catalog store checkout needs: a live re-fetch
// of the products referenced by the cart.
type Catalog interface {
	RefreshProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}

// OrderStore is the slice of the persistence layer checkout needs.
type OrderStore interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	CreateOrderWithLines(ctx context.Context, order *models.Order, lines []models.OrderLine) error
	AttachPaymentPreference(ctx context.Context, orderID int64, pref store.PaymentPreferenceFields) error
	GetOrderByExternalReference(ctx context.Context, ref string) (*models.Order, error)
}

// PreferenceCreator creates payment preferences with the external provider.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req *payment.PreferenceRequest) (*payment.Preference, error)
}

// Publisher publishes order lifecycle events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// Service runs the submission flow.
type Service struct {
	catalog    Catalog
	store      OrderStore
	provider   PreferenceCreator
	publisher  Publisher
	guard      ReconcileGuard
	paymentCfg config.PaymentConfig
	pricingCfg pricing.Config
	logger     *zap.Logger
}

// NewService wires the submission flow's collaborators.
func NewService(
	catalog Catalog,
	orderStore OrderStore,
	provider PreferenceCreator,
	publisher Publisher,
	guard ReconcileGuard,
	paymentCfg config.PaymentConfig,
	pricingCfg pricing.Config,
) *Service {
	return &Service{
		catalog:    catalog,
		store:      orderStore,
		provider:   provider,
		publisher:  publisher,
		guard:      guard,
		paymentCfg: paymentCfg,
		pricingCfg: pricingCfg,
		logger:     util.GetLogger(),
	}
}

// PlacedOrder is the successful result of PlaceOrder: the persisted order and
// the environment-appropriate payment page to redirect the buyer to.
type PlacedOrder struct {
	Order        *models.Order `json:"order"`
	PreferenceID string        `json:"preference_id"`
	RedirectURL  string        `json:"redirect_url"`
}

// PlaceOrder runs the full submission sequence for the user's cart. On
// failure before preference creation the cart is left intact; the cart is
// cleared only once a preference exists.
func (s *Service) PlaceOrder(ctx context.Context, userID string, ledger *cart.Ledger) (*PlacedOrder, error) {
	ctx, span := util.StartSpan(ctx, "checkout.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	lines := ledger.Lines()
	if len(lines) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, &CartInvalidError{Problems: []string{"cart is empty"}}
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil || !profile.Complete() {
		util.OrdersFailedTotal.WithLabelValues("missing_profile").Inc()
		return nil, ErrMissingProfile
	}

	if err := s.validateCart(ctx, lines); err != nil {
		util.OrdersFailedTotal.WithLabelValues("cart_invalid").Inc()
		return nil, err
	}

	breakdown := pricing.Compute(lines, s.pricingCfg)

	order := &models.Order{
		UserID:   userID,
		Subtotal: breakdown.Subtotal,
		Shipping: breakdown.Shipping,
		Tax:      breakdown.Tax,
		Total:    breakdown.Total,
		Status:   models.OrderStatusPending,
	}

	// Unit prices are snapshotted from the cart, not re-fetched, so the
	// buyer pays what the cart displayed.
	orderLines := make([]models.OrderLine, len(lines))
	for i, line := range lines {
		orderLines[i] = models.OrderLine{
			ProductID: line.ID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		}
	}

	if err := s.store.CreateOrderWithLines(ctx, order, orderLines); err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			// Lost the race between validation and the conditional
			// decrement; surface it like any other stock problem.
			util.OrdersFailedTotal.WithLabelValues("cart_invalid").Inc()
			return nil, &CartInvalidError{Problems: []string{err.Error()}}
		}
		util.OrdersFailedTotal.WithLabelValues("order_creation").Inc()
		return nil, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total", order.Total.String()))

	pref, err := s.createPreference(ctx, order, lines, profile)
	if err != nil {
		// Order stays pending with no payment attempt attached; it carries
		// no side effects beyond its own row.
		util.OrdersFailedTotal.WithLabelValues("payment_provider").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	if err := ledger.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear cart after preference creation",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	if err := s.store.AttachPaymentPreference(ctx, order.ID, store.PaymentPreferenceFields{
		PreferenceID:     pref.ID,
		CollectorID:      pref.CollectorID.String(),
		ClientID:         pref.ClientID,
		OperationType:    pref.OperationType,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}); err != nil {
		// The buyer is already on the provider's page; reconciliation
		// recovers under-annotated orders.
		s.logger.Error("Failed to attach payment preference",
			zap.Int64("order_id", order.ID), zap.Error(err))
	} else {
		order.Status = models.OrderStatusProcessing
		order.PreferenceID = pref.ID
	}

	if s.publisher != nil {
		event := &models.OrderPlacedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPlaced,
				Timestamp: time.Now(),
			},
			OrderID:      order.ID,
			UserID:       userID,
			Total:        order.Total.String(),
			PreferenceID: pref.ID,
		}
		if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
		}
	}

	util.OrdersPlacedTotal.Inc()

	return &PlacedOrder{
		Order:        order,
		PreferenceID: pref.ID,
		RedirectURL:  pref.RedirectURL(s.paymentCfg.Sandbox),
	}, nil
}

// validateCart re-fetches every cart line's product and collects one message
// per offending line, in cart order. Stock may have moved since the items
// were added; this is the user-facing defense against overselling (the
// conditional decrement in the order transaction is the authoritative one).
func (s *Service) validateCart(ctx context.Context, lines []cart.Line) error {
	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ID
	}

	fresh, err := s.catalog.RefreshProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to validate cart: %w", err)
	}

	var problems []string
	for _, line := range lines {
		product, ok := fresh[line.ID]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%s is no longer available", line.Name))
		case !product.Active():
			problems = append(problems, fmt.Sprintf("%s is not available for purchase", product.Name))
		case product.Stock < line.Quantity:
			problems = append(problems, fmt.Sprintf("only %d of %s left, cart has %d",
				product.Stock, product.Name, line.Quantity))
		}
	}

	if len(problems) > 0 {
		return &CartInvalidError{Problems: problems}
	}
	return nil
}

func (s *Service) createPreference(ctx context.Context, order *models.Order, lines []cart.Line, profile *models.Profile) (*payment.Preference, error) {
	items := make([]payment.Item, len(lines))
	for i, line := range lines {
		items[i] = payment.Item{
			Title:      line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.Price,
			CurrencyID: s.paymentCfg.Currency,
		}
	}

	req := &payment.PreferenceRequest{
		Items: items,
		Payer: payment.Payer{
			Name:  profile.Name,
			Email: profile.Email,
		},
		ExternalReference: strconv.FormatInt(order.ID, 10),
		BackURLs: payment.BackURLs{
			Success: s.paymentCfg.SuccessURL,
			Failure: s.paymentCfg.FailureURL,
			Pending: s.paymentCfg.PendingURL,
		},
		AutoReturn: "approved",
	}

	return s.provider.CreatePreference(ctx, req)
}
