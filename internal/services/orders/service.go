package orders

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/BlueOsprey/OrderPeek/internal/extract"
	"github.com/BlueOsprey/OrderPeek/internal/integrations/commerce"
	"github.com/BlueOsprey/OrderPeek/internal/models"
	"github.com/pkg/errors"
)

type Source interface {
	ListOrders(ctx context.Context, filter commerce.ListFilter, page, perPage int) ([]*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrderNotes(ctx context.Context, orderID int64) ([]*models.OrderNote, error)
	ListProducts(ctx context.Context, limit int) ([]*models.Product, error)
}

type Service struct {
	src       Source
	extractor *extract.Extractor
	log       *slog.Logger

	perPage  int
	maxPages int
}

func New(src Source, ex *extract.Extractor, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		src:       src,
		extractor: ex,
		log:       log,
		perPage:   100,
		maxPages:  5,
	}
}

func (s *Service) WithPaging(perPage, maxPages int) *Service {
	if perPage > 0 {
		s.perPage = perPage
	}
	if maxPages > 0 {
		s.maxPages = maxPages
	}
	return s
}

// SearchByEmail тянет страницы последовательно (не параллельно: так
// детерминирован порядок и не ломается rate limit магазина), затем
// перефильтровывает точным сравнением email и сортирует по дате.
// Пустой результат — это успех, а не ошибка.
func (s *Service) SearchByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return nil, errors.New("email is required")
	}

	var fetched []*models.Order
	for page := 1; page <= s.maxPages; page++ {
		batch, err := s.src.ListOrders(ctx, commerce.ListFilter{Search: needle}, page, s.perPage)
		if err != nil {
			// Частично скачанные страницы выбрасываем: лучше явная ошибка,
			// чем молча неполный список заказов.
			return nil, errors.Wrapf(err, "list orders page %d", page)
		}
		if len(batch) == 0 {
			break
		}
		fetched = append(fetched, batch...)
	}

	// Upstream search матчит частично, поэтому доверяем только точному
	// совпадению email без учёта регистра.
	result := make([]*models.Order, 0, len(fetched))
	for _, o := range fetched {
		if strings.ToLower(o.Email) == needle {
			result = append(result, o)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	s.log.Info("order search done",
		"email", needle, "fetched", len(fetched), "matched", len(result))
	return result, nil
}

// SearchByID: один запрос, максимум один заказ. Отсутствие заказа — пустой
// результат, транспортные ошибки поднимаются наверх.
func (s *Service) SearchByID(ctx context.Context, id int64) ([]*models.Order, error) {
	o, err := s.src.GetOrder(ctx, id)
	if err != nil {
		if commerce.IsNotFound(err) {
			return []*models.Order{}, nil
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return []*models.Order{o}, nil
}

// Augment собирает заказ вместе с трекингом. Если заметки не скачались,
// извлечение работает по customer note и метаданным заказа: проблемы
// трекинга никогда не блокируют показ самого заказа.
func (s *Service) Augment(ctx context.Context, id int64) (*models.EnrichedOrder, error) {
	o, err := s.src.GetOrder(ctx, id)
	if err != nil {
		if commerce.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}

	notes, err := s.src.ListOrderNotes(ctx, id)
	if err != nil {
		s.log.Warn("order notes unavailable, tracking degrades to order fields",
			"order_id", id, "err", err)
		notes = nil
	}

	return &models.EnrichedOrder{
		Order:    o,
		Tracking: s.extractor.Extract(o, notes),
	}, nil
}

// CheckUpstream — лёгкая проверка связи с магазином (один товар).
func (s *Service) CheckUpstream(ctx context.Context) error {
	if _, err := s.src.ListProducts(ctx, 1); err != nil {
		return errors.Wrap(err, "list products")
	}
	return nil
}
