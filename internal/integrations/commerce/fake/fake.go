package fake

import (
	"context"
	"strings"

	"github.com/BlueOsprey/OrderPeek/internal/integrations/commerce"
	"github.com/BlueOsprey/OrderPeek/internal/models"
)

// Source — сценарная заглушка магазина для тестов и локального запуска.
// ListOrders нарочно матчит email по подстроке: так ведёт себя настоящий
// upstream search, и именно поэтому агрегатор перефильтровывает результат.
type Source struct {
	Orders   []*models.Order
	Notes    map[int64][]*models.OrderNote
	Products []*models.Product

	ListErr     error
	GetErr      error
	NotesErr    error
	ProductsErr error

	// PagesRequested копит номера страниц, запрошенных через ListOrders.
	PagesRequested []int
}

func New() *Source {
	return &Source{Notes: map[int64][]*models.OrderNote{}}
}

func (s *Source) ListOrders(ctx context.Context, filter commerce.ListFilter, page, perPage int) ([]*models.Order, error) {
	s.PagesRequested = append(s.PagesRequested, page)
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	matched := make([]*models.Order, 0, len(s.Orders))
	needle := strings.ToLower(filter.Search)
	for _, o := range s.Orders {
		if needle == "" || strings.Contains(strings.ToLower(o.Email), needle) {
			matched = append(matched, o)
		}
	}

	start := (page - 1) * perPage
	if start >= len(matched) {
		return []*models.Order{}, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *Source) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	for _, o := range s.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, commerce.ErrNotFound
}

func (s *Source) ListOrderNotes(ctx context.Context, orderID int64) ([]*models.OrderNote, error) {
	if s.NotesErr != nil {
		return nil, s.NotesErr
	}
	return s.Notes[orderID], nil
}

func (s *Source) ListProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	if s.ProductsErr != nil {
		return nil, s.ProductsErr
	}
	if limit < len(s.Products) {
		return s.Products[:limit], nil
	}
	return s.Products, nil
}

var _ commerce.Source = (*Source)(nil)
