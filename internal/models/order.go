package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы заказа, как их отдаёт магазин. Неизвестные значения не нормализуем.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusOnHold     = "on-hold"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
	OrderStatusFailed     = "failed"
)

type Order struct {
	ID           int64
	Email        string
	CreatedAt    time.Time
	Total        decimal.Decimal
	Currency     string
	Status       string
	CustomerNote string
	Items        []LineItem
	Metadata     []MetaEntry
}

type LineItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Total    decimal.Decimal
}

type MetaEntry struct {
	Key   string
	Value string
}

type OrderNote struct {
	ID        int64
	Body      string
	CreatedAt time.Time
}

// Product нужен только для проверки связи с магазином.
type Product struct {
	ID   int64
	Name string
}
