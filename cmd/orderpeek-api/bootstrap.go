package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BlueOsprey/OrderPeek/config"
	"github.com/BlueOsprey/OrderPeek/internal/api/orders_api"
	"github.com/BlueOsprey/OrderPeek/internal/cache/rediscache"
	"github.com/BlueOsprey/OrderPeek/internal/extract"
	"github.com/BlueOsprey/OrderPeek/internal/integrations/commerce/woohttp"
	"github.com/BlueOsprey/OrderPeek/internal/services/orders"
)

type orderPeekApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   orderPeekOpts
	api    *orders_api.API
}

func mustBootstrapOrderPeek() *orderPeekApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	// Фейлимся до первого сетевого вызова: без ключей и адреса магазина
	// сервису нечего делать.
	creds, err := config.LoadCredentials()
	if err != nil {
		panic(err.Error())
	}
	if cfg.Store.BaseURL == "" {
		panic("store.base_url is required in config")
	}

	httpAddr := cfg.OrderPeek.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	sessionTTL := time.Duration(cfg.OrderPeek.SessionTTLSeconds) * time.Second
	if sessionTTL <= 0 {
		sessionTTL = 15 * time.Minute
	}

	src := woohttp.New(cfg.Store.BaseURL, creds.ConsumerKey, creds.ConsumerSecret)
	ex := extract.New(cfg.Store.BaseURL)

	svc := orders.New(src, ex, nil).
		WithPaging(cfg.OrderPeek.SearchPerPage, cfg.OrderPeek.SearchMaxPages)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	sessions := rediscache.New(redisAddr)

	api := orders_api.New(svc, sessions, nil).
		WithPageSize(cfg.OrderPeek.PageSize).
		WithSessionTTL(sessionTTL)

	if cfg.OrderPeek.SearchRateLimitPerMinute > 0 {
		rl := rediscache.NewRateLimiter(redisAddr)
		api = api.WithRateLimit(rl, int64(cfg.OrderPeek.SearchRateLimitPerMinute))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &orderPeekApp{
		ctx:    ctx,
		cancel: cancel,
		opts:   orderPeekOpts{httpAddr: httpAddr},
		api:    api,
	}
}

func (a *orderPeekApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *orderPeekApp) Run() error {
	return runOrderPeek(a.ctx, a.opts, a.api)
}
