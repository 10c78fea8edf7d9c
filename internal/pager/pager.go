package pager

import "github.com/BlueOsprey/OrderPeek/internal/models"

const DefaultPageSize = 5

// Pager — курсор поэтапного показа уже скачанного результата поиска.
// Поля экспортированы: состояние сериализуется в сессию между HTTP-вызовами.
type Pager struct {
	Orders   []*models.Order `json:"orders"`
	PageSize int             `json:"page_size"`
	Visible  int             `json:"visible"`
}

func New(orders []*models.Order, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	p := &Pager{Orders: orders, PageSize: pageSize}
	p.Reset()
	return p
}

func (p *Pager) Reset() {
	p.Visible = p.PageSize
	p.clamp()
}

// Current returns the revealed prefix of the result set.
func (p *Pager) Current() []*models.Order {
	return p.Orders[:p.Visible]
}

// LoadMore widens the visible prefix by one page; past the end it is a no-op.
func (p *Pager) LoadMore() {
	if !p.HasMore() {
		return
	}
	p.Visible += p.PageSize
	p.clamp()
}

func (p *Pager) HasMore() bool {
	return p.Visible < len(p.Orders)
}

func (p *Pager) clamp() {
	if p.Visible > len(p.Orders) {
		p.Visible = len(p.Orders)
	}
	if p.Visible < 0 {
		p.Visible = 0
	}
}
