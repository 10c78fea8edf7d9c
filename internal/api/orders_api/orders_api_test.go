package orders_api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BlueOsprey/OrderPeek/internal/cache/rediscache"
	"github.com/BlueOsprey/OrderPeek/internal/extract"
	"github.com/BlueOsprey/OrderPeek/internal/integrations/commerce"
	"github.com/BlueOsprey/OrderPeek/internal/integrations/commerce/fake"
	"github.com/BlueOsprey/OrderPeek/internal/models"
	"github.com/BlueOsprey/OrderPeek/internal/services/orders"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, src *fake.Source) (*API, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	svc := orders.New(src, extract.New("https://shop.example.com"), nil)
	return New(svc, rediscache.New(mr.Addr()), nil), mr
}

func postSearch(t *testing.T, ts *httptest.Server, query string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	resp, err := http.Post(ts.URL+"/api/v1/orders/search", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSearchAndLoadMore(t *testing.T) {
	src := fake.New()
	for i := 0; i < 12; i++ {
		src.Orders = append(src.Orders, &models.Order{
			ID:        int64(i + 1),
			Email:     "a@x.com",
			CreatedAt: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
		})
	}
	api, _ := newTestAPI(t, src)
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	resp := postSearch(t, ts, "a@x.com")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sr := decode[searchResponse](t, resp)
	require.Equal(t, 12, sr.Total)
	require.Len(t, sr.Orders, 5)
	require.True(t, sr.HasMore)
	require.NotEmpty(t, sr.SearchID)
	// Сортировка: свежие заказы первыми.
	require.Equal(t, int64(12), sr.Orders[0].ID)

	moreURL := fmt.Sprintf("%s/api/v1/orders/search/%s/more", ts.URL, sr.SearchID)

	resp, err := http.Post(moreURL, "application/json", nil)
	require.NoError(t, err)
	sr = decode[searchResponse](t, resp)
	require.Len(t, sr.Orders, 10)
	require.True(t, sr.HasMore)

	resp, err = http.Post(moreURL, "application/json", nil)
	require.NoError(t, err)
	sr = decode[searchResponse](t, resp)
	require.Len(t, sr.Orders, 12)
	require.False(t, sr.HasMore)

	// Курсор за концом не двигается.
	resp, err = http.Post(moreURL, "application/json", nil)
	require.NoError(t, err)
	sr = decode[searchResponse](t, resp)
	require.Len(t, sr.Orders, 12)
	require.False(t, sr.HasMore)
}

func TestSearch_NumericQueryIsOrderID(t *testing.T) {
	src := fake.New()
	src.Orders = []*models.Order{{ID: 77, Email: "a@x.com"}}
	api, _ := newTestAPI(t, src)
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	resp := postSearch(t, ts, "77")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sr := decode[searchResponse](t, resp)
	require.Equal(t, 1, sr.Total)
	require.Equal(t, int64(77), sr.Orders[0].ID)

	// Несуществующий id: пустой успех, не ошибка.
	resp = postSearch(t, ts, "78")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sr = decode[searchResponse](t, resp)
	require.Equal(t, 0, sr.Total)
	require.False(t, sr.HasMore)
}

func TestSearch_BadQuery(t *testing.T) {
	api, _ := newTestAPI(t, fake.New())
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	resp := postSearch(t, ts, "not-an-email")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postSearch(t, ts, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSearch_UpstreamFailureIsBadGateway(t *testing.T) {
	src := fake.New()
	src.ListErr = &commerce.TransportError{StatusCode: 500, Message: "store down"}
	api, _ := newTestAPI(t, src)
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	// Сломанный магазин и пустой результат обязаны выглядеть по-разному.
	resp := postSearch(t, ts, "a@x.com")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()
}

func TestLoadMore_ExpiredSession(t *testing.T) {
	api, mr := newTestAPI(t, fake.New())
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	resp := postSearch(t, ts, "a@x.com")
	sr := decode[searchResponse](t, resp)

	mr.FastForward(time.Hour)

	resp, err := http.Post(ts.URL+"/api/v1/orders/search/"+sr.SearchID+"/more", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderDetail(t *testing.T) {
	src := fake.New()
	src.Orders = []*models.Order{{ID: 7, Email: "a@x.com"}}
	src.Notes[7] = []*models.OrderNote{
		{Body: "Tracking number 1234567890 via UPS, shipped April 2, 2024"},
	}
	api, _ := newTestAPI(t, src)
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/orders/7")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail struct {
		Order    orderView `json:"order"`
		Tracking struct {
			Number      string `json:"tracking_number"`
			Carrier     string `json:"carrier"`
			URL         string `json:"tracking_url"`
			ShippedDate string `json:"shipped_date"`
			Status      string `json:"status"`
			AdminURL    string `json:"admin_url"`
		} `json:"tracking"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	resp.Body.Close()

	require.Equal(t, int64(7), detail.Order.ID)
	require.Equal(t, "1234567890", detail.Tracking.Number)
	require.Equal(t, "UPS", detail.Tracking.Carrier)
	require.Equal(t, "https://www.ups.com/track?tracknum=1234567890", detail.Tracking.URL)
	require.Equal(t, "April 2, 2024", detail.Tracking.ShippedDate)
	require.Equal(t, models.TrackingStatusAvailable, detail.Tracking.Status)
	require.Equal(t, "https://shop.example.com/admin/edit?id=7", detail.Tracking.AdminURL)
}

func TestOrderDetail_NotFound(t *testing.T) {
	api, _ := newTestAPI(t, fake.New())
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/orders/404")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/orders/not-a-number")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSearch_RateLimited(t *testing.T) {
	src := fake.New()
	mr := miniredis.RunT(t)
	svc := orders.New(src, extract.New("https://shop.example.com"), nil)
	api := New(svc, rediscache.New(mr.Addr()), nil).
		WithRateLimit(rediscache.NewRateLimiter(mr.Addr()), 2)
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp := postSearch(t, ts, "a@x.com")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
	resp := postSearch(t, ts, "a@x.com")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()
}

func TestReadyz(t *testing.T) {
	src := fake.New()
	api, _ := newTestAPI(t, src)
	ts := httptest.NewServer(api.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	src.ProductsErr = &commerce.TransportError{Message: "refused"}
	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
