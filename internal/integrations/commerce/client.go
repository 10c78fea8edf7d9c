package commerce

import (
	"context"

	"github.com/BlueOsprey/OrderPeek/internal/models"
)

type ListFilter struct {
	// Search передаётся магазину как есть; upstream матчит частично,
	// поэтому результат всё равно фильтруется на нашей стороне.
	Search string
}

type Source interface {
	ListOrders(ctx context.Context, filter ListFilter, page, perPage int) ([]*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrderNotes(ctx context.Context, orderID int64) ([]*models.OrderNote, error)
	ListProducts(ctx context.Context, limit int) ([]*models.Product, error)
}
