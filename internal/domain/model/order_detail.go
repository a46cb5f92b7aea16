package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。価格は注文時点のスナップショットで、後から商品価格が変わっても再計算しない。
// ProductIDは参照のみ（外部キーなし）。
type OrderDetail struct {
	OrderItemSN int64           `gorm:"primaryKey;autoIncrement;column:order_item_sn" json:"order_item_sn"`
	OrderID     string          `gorm:"type:varchar(50);not null;index" json:"order_id"`
	ProductID   string          `gorm:"type:varchar(50);not null;index" json:"product_id"`
	Quantity    int             `gorm:"not null;check:chk_order_detail_quantity,quantity >= 1" json:"quantity"`
	StandPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"stand_price"`
	ItemPrice   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"item_price"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (OrderDetail) TableName() string { return "order_detail" }
