package model

import "time"

//在庫変動の履歴

type InventoryAdjustment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID string    `gorm:"type:varchar(50);not null;index" json:"product_id"`
	OrderID   *string   `gorm:"type:varchar(50);index" json:"order_id,omitempty"`
	Delta     int       `gorm:"not null" json:"delta"`
	Reason    string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (InventoryAdjustment) TableName() string { return "inventory_adjustment" }
