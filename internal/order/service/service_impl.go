package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	"github.com/ksheermitra/backend/internal/order/domain"
	productdomain "github.com/ksheermitra/backend/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Order, error) {
	customerID, err := parseID(req.CustomerID, domain.ErrInvalidCustomerID)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(req.ProductID, domain.ErrInvalidProduct)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	orderDate, err := time.Parse(time.DateOnly, strings.TrimSpace(req.OrderDate))
	if err != nil {
		return nil, domain.ErrInvalidOrderDate
	}

	if err := s.ensureCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	products, err := s.productSvc.FindByIDs(ctx, []snowflake.ID{productID})
	if err != nil {
		return nil, err
	}
	if _, ok := products[productID]; !ok {
		return nil, domain.ErrInvalidProduct
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         s.genID.Generate(),
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   req.Quantity,
		OrderDate:  orderDate.UTC(),
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, order); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("order_date", billingdomain.DateKey(order.OrderDate)),
	)
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, orderID)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string, month string) ([]domain.Order, error) {
	id, err := parseID(customerID, domain.ErrInvalidCustomerID)
	if err != nil {
		return nil, err
	}

	filter := domain.ListFilter{CustomerID: id}
	if strings.TrimSpace(month) != "" {
		m, err := billingdomain.ParseMonth(month)
		if err != nil {
			return nil, domain.ErrInvalidMonth
		}
		filter.From, filter.To = m.Start(), m.End()
	}

	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) ListBillable(ctx context.Context, customerID snowflake.ID, month billingdomain.Month) ([]domain.Order, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{
		CustomerID:       customerID,
		From:             month.Start(),
		To:               month.End(),
		ExcludeCancelled: true,
	})
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	orderID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	next, ok := domain.ParseStatus(strings.ToLower(strings.TrimSpace(status)))
	if !ok {
		return nil, domain.ErrInvalidStatus
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	changed, err := s.repo.UpdateStatus(ctx, s.db, orderID, order.Status, next, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Another writer moved the order first.
		return nil, domain.ErrInvalidTransition
	}

	s.log.Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)),
	)
	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

func (s *Service) find(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) ensureCustomer(ctx context.Context, customerID string) error {
	_, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{ID: customerID})
	switch {
	case errors.Is(err, customerdomain.ErrNotFound):
		return domain.ErrCustomerNotFound
	case errors.Is(err, customerdomain.ErrInvalidID):
		return domain.ErrInvalidCustomerID
	}
	return err
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
