package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID   string          `gorm:"primaryKey;type:varchar(50);column:product_id" json:"product_id"`
	ProductName string          `gorm:"type:varchar(200);not null;column:product_name" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:chk_product_quantity,quantity >= 0" json:"quantity"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string { return "product" }
