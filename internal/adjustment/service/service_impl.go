package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/adjustment/domain"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	subscriptiondomain "github.com/ksheermitra/backend/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Repo            domain.Repository
	SubscriptionSvc subscriptiondomain.Service
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	repo            domain.Repository
	subscriptionSvc subscriptiondomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("adjustment.service"),
		genID:           p.GenID,
		repo:            p.Repo,
		subscriptionSvc: p.SubscriptionSvc,
	}
}

func (s *Service) Upsert(ctx context.Context, subscriptionID string, req domain.UpsertRequest) (*domain.DailyAdjustment, error) {
	subID, err := parseID(subscriptionID, domain.ErrInvalidSubscriptionID)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, domain.ErrInvalidDate
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := s.ensureSubscription(ctx, subscriptionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &domain.DailyAdjustment{
		ID:               s.genID.Generate(),
		SubscriptionID:   subID,
		AdjustmentDate:   date.UTC(),
		AdjustedQuantity: *req.Quantity,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Upsert(ctx, s.db, row); err != nil {
		return nil, err
	}

	// The conflict path keeps the original row id.
	stored, err := s.repo.FindBySubscriptionDate(ctx, s.db, subID, row.AdjustmentDate)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}

	s.log.Info("adjustment saved",
		zap.String("subscription_id", subID.String()),
		zap.String("date", billingdomain.DateKey(stored.AdjustmentDate)),
		zap.Int64("quantity", stored.AdjustedQuantity),
	)
	return stored, nil
}

func (s *Service) ListBySubscription(ctx context.Context, subscriptionID string, month string) ([]domain.DailyAdjustment, error) {
	subID, err := parseID(subscriptionID, domain.ErrInvalidSubscriptionID)
	if err != nil {
		return nil, err
	}

	var from, to time.Time
	if strings.TrimSpace(month) != "" {
		m, err := billingdomain.ParseMonth(month)
		if err != nil {
			return nil, domain.ErrInvalidMonth
		}
		from, to = m.Start(), m.End()
	}

	if err := s.ensureSubscription(ctx, subscriptionID); err != nil {
		return nil, err
	}
	return s.repo.ListRange(ctx, s.db, []snowflake.ID{subID}, from, to)
}

func (s *Service) ListForSubscriptions(ctx context.Context, subscriptionIDs []snowflake.ID, month billingdomain.Month) ([]domain.DailyAdjustment, error) {
	return s.repo.ListRange(ctx, s.db, subscriptionIDs, month.Start(), month.End())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	adjID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	row, err := s.repo.FindByID(ctx, s.db, adjID)
	if err != nil {
		return err
	}
	if row == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, s.db, adjID); err != nil {
		return err
	}
	s.log.Info("adjustment deleted", zap.String("adjustment_id", adjID.String()))
	return nil
}

func (s *Service) ensureSubscription(ctx context.Context, id string) error {
	_, err := s.subscriptionSvc.Get(ctx, id)
	if errors.Is(err, subscriptiondomain.ErrNotFound) {
		return domain.ErrSubscriptionNotFound
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
