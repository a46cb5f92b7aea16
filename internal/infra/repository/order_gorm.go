package repository

import (
	"context"

	"ecommerce/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func preloadDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("order_item_sn asc")
	})
}

func (r *OrderGormRepository) FindByIDWithDetails(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := preloadDetails(r.db.WithContext(ctx)).
		Where("order_id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, translateError(err)
	}
	return o, nil
}

// 新しい順
func (r *OrderGormRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := preloadDetails(r.db.WithContext(ctx)).
		Order("created_at desc").
		Order("order_id desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

func (r *OrderGormRepository) ListByMemberID(ctx context.Context, memberID string) ([]model.Order, error) {
	var orders []model.Order
	err := preloadDetails(r.db.WithContext(ctx)).
		Where("member_id = ?", memberID).
		Order("created_at desc").
		Order("order_id desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

// ヘッダだけ作る（明細は OrderDetailGormRepository.CreateBulk）
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&order).Error; err != nil {
		return translateError(err)
	}
	return nil
}
