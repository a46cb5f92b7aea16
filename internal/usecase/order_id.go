package usecase

import "time"

const (
	orderIDPrefix = "Ms"
	orderIDLayout = "20060102150405"
)

type Clock interface {
	Now() time.Time
}

type OrderIDGenerator interface {
	NewOrderID() string
}

// "Ms" + yyyyMMddHHmmss。
// 同じ秒に2件来ると同じIDになる（事前の重複チェックはしない）。衝突は order の主キーで弾かれ、
// その注文は丸ごとロールバックされる。
type TimestampOrderIDGenerator struct {
	clock Clock
	loc   *time.Location
}

func NewTimestampOrderIDGenerator(clock Clock, loc *time.Location) *TimestampOrderIDGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &TimestampOrderIDGenerator{clock: clock, loc: loc}
}

func (g *TimestampOrderIDGenerator) NewOrderID() string {
	return orderIDPrefix + g.clock.Now().In(g.loc).Format(orderIDLayout)
}
