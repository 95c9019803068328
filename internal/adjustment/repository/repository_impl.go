package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ksheermitra/backend/internal/adjustment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, adjustment *domain.DailyAdjustment) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscription_id"}, {Name: "adjustment_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"adjusted_quantity", "updated_at"}),
		}).
		Create(adjustment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.DailyAdjustment, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindBySubscriptionDate(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, date time.Time) (*domain.DailyAdjustment, error) {
	return first(db.WithContext(ctx).Where("subscription_id = ? AND adjustment_date = ?", subscriptionID, date))
}

func (r *repo) ListRange(ctx context.Context, db *gorm.DB, subscriptionIDs []snowflake.ID, from, to time.Time) ([]domain.DailyAdjustment, error) {
	if len(subscriptionIDs) == 0 {
		return nil, nil
	}
	stmt := db.WithContext(ctx).Where("subscription_id IN ?", subscriptionIDs)
	if !from.IsZero() {
		stmt = stmt.Where("adjustment_date >= ?", from)
	}
	if !to.IsZero() {
		stmt = stmt.Where("adjustment_date <= ?", to)
	}

	var rows []domain.DailyAdjustment
	if err := stmt.Order("adjustment_date asc, subscription_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.DailyAdjustment{}).Error
}

func first(stmt *gorm.DB) (*domain.DailyAdjustment, error) {
	var rows []domain.DailyAdjustment
	if err := stmt.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
