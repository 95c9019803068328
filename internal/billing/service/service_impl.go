package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/ksheermitra/backend/internal/observability/logger"
	"github.com/ksheermitra/backend/internal/observability/metrics"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Source  domain.Source
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	source  domain.Source
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("billing.service"),
		source:  p.Source,
		metrics: p.Metrics,
	}
}

// ComputeMonthlyBilling builds the bill for one customer and month. The month
// is validated before any data is read.
func (s *Service) ComputeMonthlyBilling(ctx context.Context, customerID string, month string) (domain.MonthlyBill, error) {
	bill, err := s.compute(ctx, customerID, month)
	s.metrics.RecordBillingComputation(ctx, outcome(err))
	return bill, err
}

func (s *Service) compute(ctx context.Context, rawCustomerID string, rawMonth string) (domain.MonthlyBill, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(rawCustomerID))
	if err != nil || customerID == 0 {
		return domain.MonthlyBill{}, domain.ErrInvalidCustomerID
	}

	month, err := domain.ParseMonth(rawMonth)
	if err != nil {
		return domain.MonthlyBill{}, err
	}

	customer, err := s.source.GetCustomer(ctx, customerID)
	if err != nil {
		return domain.MonthlyBill{}, err
	}
	if customer == nil {
		return domain.MonthlyBill{}, domain.ErrCustomerNotFound
	}

	var (
		subs   []domain.Subscription
		orders []domain.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.source.ListSubscriptions(gctx, customerID)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = s.source.ListBillableOrders(gctx, customerID, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MonthlyBill{}, err
	}

	var (
		adjustments []domain.Adjustment
		products    map[snowflake.ID]domain.Product
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		legacyIDs := lo.FilterMap(subs, func(sub domain.Subscription, _ int) (snowflake.ID, bool) {
			_, ok := sub.Composition.(domain.LegacySingle)
			return sub.ID, ok
		})
		if len(legacyIDs) == 0 {
			return nil
		}
		var err error
		adjustments, err = s.source.ListAdjustments(gctx, legacyIDs, month)
		return err
	})
	g.Go(func() error {
		ids := livePricedProducts(subs, orders)
		if len(ids) == 0 {
			return nil
		}
		var err error
		products, err = s.source.GetProducts(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MonthlyBill{}, err
	}

	bill := Aggregate(Input{
		Customer:      *customer,
		Month:         month,
		Subscriptions: subs,
		Adjustments:   adjustments,
		Orders:        orders,
		Products:      products,
	})

	if len(bill.Warnings) > 0 {
		log := logger.WithContext(ctx, s.log)
		for _, w := range bill.Warnings {
			log.Warn("billing warning",
				zap.String("customer_id", customerID.String()),
				zap.String("month", month.String()),
				zap.String("code", w.Code),
				zap.String("subscription_id", idString(w.SubscriptionID)),
				zap.String("order_id", idString(w.OrderID)),
				zap.String("product_id", idString(w.ProductID)),
			)
		}
		for code, ws := range lo.GroupBy(bill.Warnings, func(w domain.Warning) string { return w.Code }) {
			s.metrics.RecordBillingWarnings(ctx, code, len(ws))
		}
	}

	return bill, nil
}

// livePricedProducts collects the products priced from the live catalogue:
// legacy subscriptions and orders. Multi-item subscriptions carry their own price.
func livePricedProducts(subs []domain.Subscription, orders []domain.Order) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(subs)+len(orders))
	for _, sub := range subs {
		if legacy, ok := sub.Composition.(domain.LegacySingle); ok {
			ids = append(ids, legacy.ProductID)
		}
	}
	for _, o := range orders {
		ids = append(ids, o.ProductID)
	}
	return lo.Uniq(ids)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidMonth), errors.Is(err, domain.ErrInvalidCustomerID):
		return "invalid"
	case errors.Is(err, domain.ErrCustomerNotFound):
		return "not_found"
	default:
		return "error"
	}
}
