// Package httpapi exposes quotes, spreads and the live stream over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spreadscope/internal/application/broadcast"
	"spreadscope/internal/application/service"
	"spreadscope/internal/domain/store"
	"spreadscope/internal/infrastructure/rates"
)

type Params struct {
	Addr            string
	FrontendDir     string
	ShutdownTimeout time.Duration
	WriteTimeout    time.Duration
	PingIdle        time.Duration
}

type Server struct {
	p         Params
	quotes    *service.QuoteService
	store     *store.Store
	hub       *broadcast.Hub
	rates     *rates.LocalRates
	exchanges map[string]struct{}
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

func NewServer(p Params, quotes *service.QuoteService, st *store.Store, hub *broadcast.Hub, r *rates.LocalRates) *Server {
	if p.ShutdownTimeout <= 0 {
		p.ShutdownTimeout = 10 * time.Second
	}
	if p.WriteTimeout <= 0 {
		p.WriteTimeout = 5 * time.Second
	}
	if p.PingIdle <= 0 {
		p.PingIdle = 60 * time.Second
	}
	exchanges := make(map[string]struct{})
	for _, ex := range st.Exchanges() {
		exchanges[ex] = struct{}{}
	}
	return &Server{
		p:         p,
		quotes:    quotes,
		store:     st,
		hub:       hub,
		rates:     r,
		exchanges: exchanges,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: log.With().Str("component", "httpapi").Logger(),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/quotes", s.quotesHandler)
	mux.HandleFunc("GET /api/spreads", s.spreadsHandler)
	mux.HandleFunc("GET /api/converter/rates", s.ratesHandler)
	mux.HandleFunc("GET /api/converter/convert", s.convertHandler)
	mux.HandleFunc("GET /ws", s.wsHandler)
	mux.HandleFunc("GET /{$}", s.rootHandler)

	if s.frontendExists() {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.p.FrontendDir))))
	}

	return s.middleware(mux)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// Buffer the error channel so that the routine
	// pushing to it can exit immediately.
	errCh := make(chan error, 1)

	srv := &http.Server{
		Addr:              s.p.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.logger.Info().Str("addr", s.p.Addr).Msg("http server listening")

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), s.p.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shCtx); err != nil {
			s.logger.Warn().Err(err).Msg("http shutdown")
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}

func (s *Server) frontendExists() bool {
	if s.p.FrontendDir == "" {
		return false
	}
	info, err := os.Stat(s.p.FrontendDir)
	return err == nil && info.IsDir()
}
