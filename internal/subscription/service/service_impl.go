package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	productdomain "github.com/ksheermitra/backend/internal/product/domain"
	"github.com/ksheermitra/backend/internal/subscription/domain"
	"github.com/samber/lo"
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
		log:         p.Log.Named("subscription.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Subscription, error) {
	customerID, err := parseID(req.CustomerID, domain.ErrInvalidCustomerID)
	if err != nil {
		return nil, err
	}

	hasLegacy := req.ProductID != nil || req.QuantityPerDay != nil
	hasItems := len(req.Items) > 0
	if hasLegacy == hasItems {
		return nil, domain.ErrInvalidComposition
	}

	startDate, err := parseDate(req.StartDate, domain.ErrInvalidStartDate)
	if err != nil {
		return nil, err
	}
	var endDate *time.Time
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		end, err := parseDate(*req.EndDate, domain.ErrInvalidEndDate)
		if err != nil {
			return nil, err
		}
		endDate = &end
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, domain.ErrInvalidEndDate
	}

	scheduleType, daysOfWeek, err := normalizeSchedule(req.ScheduleType, req.DaysOfWeek)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:           s.genID.Generate(),
		CustomerID:   customerID,
		StartDate:    startDate,
		EndDate:      endDate,
		IsActive:     true,
		ScheduleType: scheduleType,
		DaysOfWeek:   daysOfWeek,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if hasLegacy {
		if req.ProductID == nil {
			return nil, domain.ErrInvalidProduct
		}
		productID, err := parseID(*req.ProductID, domain.ErrInvalidProduct)
		if err != nil {
			return nil, err
		}
		if req.QuantityPerDay == nil || *req.QuantityPerDay < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		products, err := s.productSvc.FindByIDs(ctx, []snowflake.ID{productID})
		if err != nil {
			return nil, err
		}
		if _, ok := products[productID]; !ok {
			return nil, domain.ErrInvalidProduct
		}
		qty := *req.QuantityPerDay
		sub.ProductID = &productID
		sub.QuantityPerDay = &qty
	} else {
		items, err := s.snapshotItems(ctx, sub.ID, req.Items, now)
		if err != nil {
			return nil, err
		}
		sub.Items = items
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := sub.Items
		sub.Items = nil
		if err := s.repo.Insert(ctx, tx, sub); err != nil {
			return err
		}
		sub.Items = items
		return s.repo.ReplaceItems(ctx, tx, sub.ID, items)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Int("items", len(sub.Items)),
	)
	return sub, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	subID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, subID)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]domain.Subscription, error) {
	id, err := parseID(customerID, domain.ErrInvalidCustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, s.db, id)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Subscription, error) {
	subID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	sub, err := s.find(ctx, subID)
	if err != nil {
		return nil, err
	}

	legacy := sub.Composition() == domain.CompositionLegacy
	if req.QuantityPerDay != nil {
		if !legacy {
			return nil, domain.ErrInvalidComposition
		}
		if *req.QuantityPerDay < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		qty := *req.QuantityPerDay
		sub.QuantityPerDay = &qty
	}
	if len(req.Items) > 0 && legacy {
		return nil, domain.ErrInvalidComposition
	}

	switch {
	case req.ClearEndDate:
		sub.EndDate = nil
	case req.EndDate != nil:
		end, err := parseDate(*req.EndDate, domain.ErrInvalidEndDate)
		if err != nil {
			return nil, err
		}
		sub.EndDate = &end
	}
	if sub.EndDate != nil && sub.EndDate.Before(sub.StartDate) {
		return nil, domain.ErrInvalidEndDate
	}

	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}

	if req.ScheduleType != nil || req.DaysOfWeek != nil {
		scheduleType := lo.FromPtrOr(sub.ScheduleType, "")
		if req.ScheduleType != nil {
			scheduleType = *req.ScheduleType
		}
		days := req.DaysOfWeek
		if days == nil && sub.DaysOfWeek != nil {
			days = strings.Split(*sub.DaysOfWeek, ",")
		}
		normalizedType, normalizedDays, err := normalizeSchedule(scheduleType, days)
		if err != nil {
			return nil, err
		}
		sub.ScheduleType = normalizedType
		sub.DaysOfWeek = normalizedDays
	}

	now := time.Now().UTC()
	var items []domain.SubscriptionItem
	if len(req.Items) > 0 {
		items, err = s.snapshotItems(ctx, sub.ID, req.Items, now)
		if err != nil {
			return nil, err
		}
	}

	sub.UpdatedAt = now
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, sub); err != nil {
			return err
		}
		if items == nil {
			return nil
		}
		return s.repo.ReplaceItems(ctx, tx, sub.ID, items)
	})
	if err != nil {
		return nil, err
	}
	if items != nil {
		sub.Items = items
	}

	s.log.Info("subscription updated", zap.String("subscription_id", sub.ID.String()))
	return sub, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	subID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	if _, err := s.find(ctx, subID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, subID)
	})
	if err != nil {
		return err
	}

	s.log.Info("subscription deleted", zap.String("subscription_id", subID.String()))
	return nil
}

func (s *Service) find(ctx context.Context, id snowflake.ID) (*domain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	return sub, nil
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

// snapshotItems validates the requested items and copies each product's
// current unit price onto the item.
func (s *Service) snapshotItems(ctx context.Context, subscriptionID snowflake.ID, reqs []domain.ItemRequest, now time.Time) ([]domain.SubscriptionItem, error) {
	ids := make([]snowflake.ID, 0, len(reqs))
	for _, item := range reqs {
		id, err := parseID(item.ProductID, domain.ErrInvalidProduct)
		if err != nil {
			return nil, err
		}
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		ids = append(ids, id)
	}

	products, err := s.productSvc.FindByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}

	items := make([]domain.SubscriptionItem, 0, len(reqs))
	for i, id := range ids {
		product, ok := products[id]
		if !ok {
			return nil, domain.ErrInvalidProduct
		}
		items = append(items, domain.SubscriptionItem{
			ID:             s.genID.Generate(),
			SubscriptionID: subscriptionID,
			ProductID:      id,
			Quantity:       reqs[i].Quantity,
			PricePerUnit:   product.UnitPrice,
			CreatedAt:      now,
		})
	}
	return items, nil
}

var weekdays = map[string]string{
	"sunday":    "Sunday",
	"monday":    "Monday",
	"tuesday":   "Tuesday",
	"wednesday": "Wednesday",
	"thursday":  "Thursday",
	"friday":    "Friday",
	"saturday":  "Saturday",
}

// normalizeSchedule returns the stored schedule_type and days_of_week.
// Weekly schedules need at least one valid weekday; days are stored Title
// cased and comma separated.
func normalizeSchedule(scheduleType string, days []string) (*string, *string, error) {
	st := strings.ToLower(strings.TrimSpace(scheduleType))
	switch domain.ScheduleType(st) {
	case "":
		return nil, nil, nil
	case domain.ScheduleDaily, domain.ScheduleCustom:
		return &st, nil, nil
	case domain.ScheduleWeekly:
	default:
		return nil, nil, domain.ErrInvalidSchedule
	}

	names := make([]string, 0, len(days))
	for _, day := range days {
		name, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return nil, nil, domain.ErrInvalidDaysOfWeek
		}
		names = append(names, name)
	}
	names = lo.Uniq(names)
	if len(names) == 0 {
		return nil, nil, domain.ErrInvalidDaysOfWeek
	}
	joined := strings.Join(names, ",")
	return &st, &joined, nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

func parseDate(value string, invalid error) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid
	}
	return t.UTC(), nil
}
