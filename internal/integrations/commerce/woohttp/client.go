package woohttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BlueOsprey/OrderPeek/internal/integrations/commerce"
	"github.com/BlueOsprey/OrderPeek/internal/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const apiBasePath = "/wp-json/wc/v3"

type Client struct {
	baseURL string
	key     string
	secret  string
	httpc   *http.Client
}

func New(baseURL, consumerKey, consumerSecret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     consumerKey,
		secret:  consumerSecret,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type wooOrder struct {
	ID           int64           `json:"id"`
	Status       string          `json:"status"`
	Currency     string          `json:"currency"`
	DateCreated  string          `json:"date_created_gmt"`
	Total        decimal.Decimal `json:"total"`
	CustomerNote string          `json:"customer_note"`
	Billing      struct {
		Email string `json:"email"`
	} `json:"billing"`
	LineItems []struct {
		Name     string          `json:"name"`
		Quantity int             `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
		Total    decimal.Decimal `json:"total"`
	} `json:"line_items"`
	MetaData []struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	} `json:"meta_data"`
}

type wooNote struct {
	ID          int64  `json:"id"`
	Note        string `json:"note"`
	DateCreated string `json:"date_created_gmt"`
}

type wooProduct struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (c *Client) ListOrders(ctx context.Context, filter commerce.ListFilter, page, perPage int) ([]*models.Order, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var raw []wooOrder
	if err := c.getJSON(ctx, "/orders", q, &raw); err != nil {
		return nil, err
	}
	out := make([]*models.Order, 0, len(raw))
	for i := range raw {
		out = append(out, toOrder(&raw[i]))
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var raw wooOrder
	err := c.getJSON(ctx, "/orders/"+strconv.FormatInt(id, 10), nil, &raw)
	if err != nil {
		if te, ok := commerce.AsTransport(err); ok && te.StatusCode == http.StatusNotFound {
			return nil, errors.Wrapf(commerce.ErrNotFound, "order %d", id)
		}
		return nil, err
	}
	return toOrder(&raw), nil
}

func (c *Client) ListOrderNotes(ctx context.Context, orderID int64) ([]*models.OrderNote, error) {
	var raw []wooNote
	if err := c.getJSON(ctx, "/orders/"+strconv.FormatInt(orderID, 10)+"/notes", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]*models.OrderNote, 0, len(raw))
	for _, n := range raw {
		out = append(out, &models.OrderNote{
			ID:        n.ID,
			Body:      n.Note,
			CreatedAt: parseWooTime(n.DateCreated),
		})
	}
	return out, nil
}

func (c *Client) ListProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(limit))

	var raw []wooProduct
	if err := c.getJSON(ctx, "/products", q, &raw); err != nil {
		return nil, err
	}
	out := make([]*models.Product, 0, len(raw))
	for _, p := range raw {
		out = append(out, &models.Product{ID: p.ID, Name: p.Name})
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = strings.TrimRight(u.Path, "/") + apiBasePath + path

	if q == nil {
		q = url.Values{}
	}
	// Woo REST v3: ключи авторизации идут query-параметрами.
	q.Set("consumer_key", c.key)
	q.Set("consumer_secret", c.secret)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &commerce.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &commerce.TransportError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}

func toOrder(raw *wooOrder) *models.Order {
	o := &models.Order{
		ID:           raw.ID,
		Email:        raw.Billing.Email,
		CreatedAt:    parseWooTime(raw.DateCreated),
		Total:        raw.Total,
		Currency:     raw.Currency,
		Status:       raw.Status,
		CustomerNote: raw.CustomerNote,
	}
	for _, li := range raw.LineItems {
		o.Items = append(o.Items, models.LineItem{
			Name:     li.Name,
			Quantity: li.Quantity,
			Price:    li.Price,
			Total:    li.Total,
		})
	}
	for _, m := range raw.MetaData {
		o.Metadata = append(o.Metadata, models.MetaEntry{
			Key:   m.Key,
			Value: metaValueString(m.Value),
		})
	}
	return o
}

// metaValueString: значения meta_data бывают строками, числами и объектами.
// Объекты/массивы для эвристик бесполезны, оставляем их сырым JSON.
func metaValueString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// Woo отдаёт *_gmt без зоны: "2017-03-22T16:28:02".
func parseWooTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

var _ commerce.Source = (*Client)(nil)
