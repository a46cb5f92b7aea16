package repository

import (
	"context"

	"ecommerce/internal/domain/model"

	"gorm.io/gorm"
)

type OrderDetailGormRepository struct {
	db *gorm.DB
}

func NewOrderDetailGormRepository(db *gorm.DB) *OrderDetailGormRepository {
	return &OrderDetailGormRepository{db: db}
}

func (r *OrderDetailGormRepository) CreateBulk(ctx context.Context, orderID string, details []model.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	for i := range details {
		details[i].OrderID = orderID
	}
	if err := r.db.WithContext(ctx).Create(&details).Error; err != nil {
		return translateError(err)
	}
	return nil
}
