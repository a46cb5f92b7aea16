package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayStatus int

const (
	PayStatusUnpaid PayStatus = 0
	PayStatusPaid   PayStatus = 1
)

func (s PayStatus) Text() string {
	if s == PayStatusPaid {
		return "PAID"
	}
	return "UNPAID"
}

// 注文ヘッダ。明細(Details)は注文と一緒に作られ、注文削除でカスケード削除される。
type Order struct {
	OrderID    string          `gorm:"primaryKey;type:varchar(50);column:order_id" json:"order_id"`
	MemberID   string          `gorm:"type:varchar(50);not null;index" json:"member_id"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_price"`
	PayStatus  PayStatus       `gorm:"not null;default:0" json:"pay_status"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Details []OrderDetail `gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string { return "order" }
