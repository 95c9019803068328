package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/ksheermitra/backend/internal/adjustment/domain"
	"github.com/ksheermitra/backend/internal/billing/domain"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	orderdomain "github.com/ksheermitra/backend/internal/order/domain"
	productdomain "github.com/ksheermitra/backend/internal/product/domain"
	subscriptiondomain "github.com/ksheermitra/backend/internal/subscription/domain"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SourceParams struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	CustomerRepo     customerdomain.Repository
	ProductRepo      productdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	AdjustmentRepo   adjustmentdomain.Repository
	OrderRepo        orderdomain.Repository
}

// source reads billing inputs straight from the domain repositories.
type source struct {
	db               *gorm.DB
	log              *zap.Logger
	customerRepo     customerdomain.Repository
	productRepo      productdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
	adjustmentRepo   adjustmentdomain.Repository
	orderRepo        orderdomain.Repository
}

func NewSource(p SourceParams) domain.Source {
	return &source{
		db:               p.DB,
		log:              p.Log.Named("billing.source"),
		customerRepo:     p.CustomerRepo,
		productRepo:      p.ProductRepo,
		subscriptionRepo: p.SubscriptionRepo,
		adjustmentRepo:   p.AdjustmentRepo,
		orderRepo:        p.OrderRepo,
	}
}

func (s *source) GetCustomer(ctx context.Context, id snowflake.ID) (*domain.Customer, error) {
	c, err := s.customerRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if c == nil {
		return nil, nil
	}
	return &domain.Customer{ID: c.ID, Name: c.Name}, nil
}

func (s *source) ListSubscriptions(ctx context.Context, customerID snowflake.ID) ([]domain.Subscription, error) {
	rows, err := s.subscriptionRepo.ListByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	// Item prices are snapshots; only names come from the catalogue.
	itemProductIDs := lo.Uniq(lo.FlatMap(rows, func(sub subscriptiondomain.Subscription, _ int) []snowflake.ID {
		return lo.Map(sub.Items, func(item subscriptiondomain.SubscriptionItem, _ int) snowflake.ID { return item.ProductID })
	}))
	names := map[snowflake.ID]string{}
	if len(itemProductIDs) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, s.db, itemProductIDs)
		if err != nil {
			return nil, fmt.Errorf("load item products: %w", err)
		}
		for _, p := range products {
			names[p.ID] = p.Name
		}
	}

	subs := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, s.toBilling(row, names))
	}
	return subs, nil
}

func (s *source) toBilling(row subscriptiondomain.Subscription, names map[snowflake.ID]string) domain.Subscription {
	sub := domain.Subscription{
		ID:           row.ID,
		StartDate:    row.StartDate,
		EndDate:      row.EndDate,
		IsActive:     row.IsActive,
		ScheduleType: domain.ScheduleType(lo.FromPtrOr(row.ScheduleType, "")),
		DaysOfWeek:   lo.FromPtrOr(row.DaysOfWeek, ""),
	}

	switch row.Composition() {
	case subscriptiondomain.CompositionConflict:
		s.log.Warn("subscription has both legacy and item composition; billing as legacy",
			zap.String("subscription_id", row.ID.String()),
		)
		fallthrough
	case subscriptiondomain.CompositionLegacy:
		sub.Composition = domain.LegacySingle{ProductID: *row.ProductID, Quantity: *row.QuantityPerDay}
	case subscriptiondomain.CompositionMultiItem:
		sub.Composition = domain.MultiItem{Items: lo.Map(row.Items, func(item subscriptiondomain.SubscriptionItem, _ int) domain.Item {
			name, ok := names[item.ProductID]
			if !ok || strings.TrimSpace(name) == "" {
				name = "Product " + item.ProductID.String()
			}
			return domain.Item{
				ProductID:   item.ProductID,
				ProductName: name,
				Quantity:    item.Quantity,
				UnitPrice:   item.PricePerUnit,
			}
		})}
	}
	return sub
}

func (s *source) ListAdjustments(ctx context.Context, subscriptionIDs []snowflake.ID, month domain.Month) ([]domain.Adjustment, error) {
	rows, err := s.adjustmentRepo.ListRange(ctx, s.db, subscriptionIDs, month.Start(), month.End())
	if err != nil {
		return nil, fmt.Errorf("load adjustments: %w", err)
	}
	return lo.Map(rows, func(row adjustmentdomain.DailyAdjustment, _ int) domain.Adjustment {
		return domain.Adjustment{
			SubscriptionID: row.SubscriptionID,
			Date:           row.AdjustmentDate,
			Quantity:       row.AdjustedQuantity,
		}
	}), nil
}

func (s *source) ListBillableOrders(ctx context.Context, customerID snowflake.ID, month domain.Month) ([]domain.Order, error) {
	rows, err := s.orderRepo.List(ctx, s.db, orderdomain.ListFilter{
		CustomerID:       customerID,
		From:             month.Start(),
		To:               month.End(),
		ExcludeCancelled: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return lo.Map(rows, func(row orderdomain.Order, _ int) domain.Order {
		return domain.Order{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			OrderDate: row.OrderDate,
			Status:    domain.OrderStatus(row.Status),
		}
	}), nil
}

func (s *source) GetProducts(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Product, error) {
	if len(ids) == 0 {
		return map[snowflake.ID]domain.Product{}, nil
	}
	rows, err := s.productRepo.FindByIDs(ctx, s.db, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	out := make(map[snowflake.ID]domain.Product, len(rows))
	for _, row := range rows {
		out[row.ID] = domain.Product{ID: row.ID, Name: row.Name, UnitPrice: row.UnitPrice}
	}
	return out, nil
}
