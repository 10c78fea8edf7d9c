package orders_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BlueOsprey/OrderPeek/internal/cache"
	"github.com/BlueOsprey/OrderPeek/internal/integrations/commerce"
	"github.com/BlueOsprey/OrderPeek/internal/models"
	"github.com/BlueOsprey/OrderPeek/internal/pager"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service interface {
	SearchByEmail(ctx context.Context, email string) ([]*models.Order, error)
	SearchByID(ctx context.Context, id int64) ([]*models.Order, error)
	Augment(ctx context.Context, id int64) (*models.EnrichedOrder, error)
	CheckUpstream(ctx context.Context) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type API struct {
	svc      Service
	sessions cache.BytesCache
	rl       RateLimiter
	log      *slog.Logger
	validate *validator.Validate

	pageSize        int
	sessionTTL      time.Duration
	searchPerMinute int64
}

func New(svc Service, sessions cache.BytesCache, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{
		svc:        svc,
		sessions:   sessions,
		log:        log,
		validate:   validator.New(),
		pageSize:   pager.DefaultPageSize,
		sessionTTL: 15 * time.Minute,
	}
}

func (a *API) WithPageSize(n int) *API {
	if n > 0 {
		a.pageSize = n
	}
	return a
}

func (a *API) WithSessionTTL(ttl time.Duration) *API {
	if ttl > 0 {
		a.sessionTTL = ttl
	}
	return a
}

func (a *API) WithRateLimit(rl RateLimiter, perMinute int64) *API {
	if rl != nil && perMinute > 0 {
		a.rl = rl
		a.searchPerMinute = perMinute
	}
	return a
}

func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", a.handleReady)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.With(a.rateLimit).Post("/search", a.handleSearch)
		r.Post("/search/{searchID}/more", a.handleLoadMore)
		r.Get("/{orderID}", a.handleOrder)
	})
	return r
}

type searchRequest struct {
	Query string `json:"query" validate:"required"`
}

type searchResponse struct {
	SearchID string      `json:"search_id"`
	Total    int         `json:"total"`
	Orders   []orderView `json:"orders"`
	HasMore  bool        `json:"has_more"`
}

// searchSession паркует результат и курсор показа между вызовами сайдбара.
type searchSession struct {
	Query string      `json:"query"`
	Pager pager.Pager `json:"pager"`
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	q := strings.TrimSpace(req.Query)

	var (
		result []*models.Order
		err    error
	)
	// Числовой запрос — это id заказа, всё остальное обязано быть email.
	if id, perr := strconv.ParseInt(q, 10, 64); perr == nil {
		result, err = a.svc.SearchByID(r.Context(), id)
	} else {
		if verr := a.validate.Var(q, "email"); verr != nil {
			writeError(w, http.StatusBadRequest, "query must be an email or a numeric order id")
			return
		}
		result, err = a.svc.SearchByEmail(r.Context(), q)
	}
	if err != nil {
		a.writeSearchError(w, err)
		return
	}

	p := pager.New(result, a.pageSize)
	sid := uuid.NewString()
	a.saveSession(r.Context(), sid, &searchSession{Query: q, Pager: *p})

	writeJSON(w, http.StatusOK, searchResponse{
		SearchID: sid,
		Total:    len(result),
		Orders:   toOrderViews(p.Current()),
		HasMore:  p.HasMore(),
	})
}

func (a *API) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "searchID")

	sess, ok := a.loadSession(r.Context(), sid)
	if !ok {
		writeError(w, http.StatusNotFound, "search session not found or expired")
		return
	}

	sess.Pager.LoadMore()
	a.saveSession(r.Context(), sid, sess)

	writeJSON(w, http.StatusOK, searchResponse{
		SearchID: sid,
		Total:    len(sess.Pager.Orders),
		Orders:   toOrderViews(sess.Pager.Current()),
		HasMore:  sess.Pager.HasMore(),
	})
}

type orderDetailResponse struct {
	Order    orderView    `json:"order"`
	Tracking trackingView `json:"tracking"`
}

func (a *API) handleOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "order id must be numeric")
		return
	}

	enriched, err := a.svc.Augment(r.Context(), id)
	if err != nil {
		if commerce.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		a.writeSearchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		Order:    toOrderView(enriched.Order),
		Tracking: toTrackingView(enriched.Tracking),
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.CheckUpstream(r.Context()); err != nil {
		a.log.Warn("upstream check failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// rateLimit охраняет только поиск: один поиск стоит до пяти запросов
// к магазину. При недоступном redis пропускаем (best effort).
func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.rl == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := "rl:search:" + clientIP(r)
		allowed, _, err := a.rl.Allow(r.Context(), key, a.searchPerMinute, time.Minute)
		if err != nil {
			a.log.Warn("rate limiter unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "too many searches, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) saveSession(ctx context.Context, sid string, sess *searchSession) {
	if a.sessions == nil {
		return
	}
	b, err := json.Marshal(sess)
	if err != nil {
		a.log.Warn("marshal search session", "err", err)
		return
	}
	if err := a.sessions.Set(ctx, sessionKey(sid), b, a.sessionTTL); err != nil {
		a.log.Warn("save search session", "search_id", sid, "err", err)
	}
}

func (a *API) loadSession(ctx context.Context, sid string) (*searchSession, bool) {
	if a.sessions == nil || sid == "" {
		return nil, false
	}
	b, ok, err := a.sessions.Get(ctx, sessionKey(sid))
	if err != nil {
		a.log.Warn("load search session", "search_id", sid, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var sess searchSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, false
	}
	return &sess, true
}

func sessionKey(sid string) string {
	return "search:" + sid + ":session"
}

// Транспортные ошибки магазина показываем как bad gateway, чтобы пустой
// результат и сломанный магазин выглядели по-разному.
func (a *API) writeSearchError(w http.ResponseWriter, err error) {
	if te, ok := commerce.AsTransport(err); ok {
		a.log.Error("store request failed", "status", te.StatusCode, "err", err)
		writeError(w, http.StatusBadGateway, te.Error())
		return
	}
	a.log.Error("search failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

type orderView struct {
	ID        int64           `json:"id"`
	Email     string          `json:"email"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency,omitempty"`
	Items     []lineItemView  `json:"line_items,omitempty"`
}

type lineItemView struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

type trackingView struct {
	Number      string `json:"tracking_number,omitempty"`
	Carrier     string `json:"carrier,omitempty"`
	URL         string `json:"tracking_url,omitempty"`
	ShippedDate string `json:"shipped_date,omitempty"`
	Status      string `json:"status"`
	SourceNote  string `json:"source_note,omitempty"`
	AdminURL    string `json:"admin_url,omitempty"`
}

func toOrderViews(orders []*models.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	return out
}

func toOrderView(o *models.Order) orderView {
	v := orderView{
		ID:        o.ID,
		Email:     o.Email,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		Total:     o.Total,
		Currency:  o.Currency,
	}
	for _, li := range o.Items {
		v.Items = append(v.Items, lineItemView{
			Name:     li.Name,
			Quantity: li.Quantity,
			Price:    li.Price,
			Total:    li.Total,
		})
	}
	return v
}

func toTrackingView(t models.TrackingRecord) trackingView {
	return trackingView{
		Number:      t.Number,
		Carrier:     t.Carrier,
		URL:         t.URL,
		ShippedDate: t.ShippedDate,
		Status:      t.Status,
		SourceNote:  t.SourceNote,
		AdminURL:    t.AdminURL,
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
