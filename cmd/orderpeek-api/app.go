package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BlueOsprey/OrderPeek/internal/api/orders_api"
	"github.com/go-chi/chi/v5"
)

type orderPeekOpts struct {
	httpAddr string

	onListen func(httpAddr string)
}

func runOrderPeek(ctx context.Context, opts orderPeekOpts, api *orders_api.API) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()
	r.Mount("/", api.Routes())

	srv := &http.Server{Handler: r}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("orderpeek api listening", "addr", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
