package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"edupay/internal/config"
	"edupay/internal/infra/download"
	"edupay/internal/usecase"
)

// Server is the public payment surface: checkout, the processor's
// redirect-back callback, and token-gated document downloads.
type Server struct {
	checkoutUC    usecase.CheckoutUseCase
	fulfillmentUC usecase.FulfillmentUseCase
	linker        *download.Linker

	storagePublicURL string
	bucket           string

	log    *zerolog.Logger
	server *http.Server
}

func NewServer(
	cfg *config.Config,
	checkoutUC usecase.CheckoutUseCase,
	fulfillmentUC usecase.FulfillmentUseCase,
	linker *download.Linker,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		checkoutUC:       checkoutUC,
		fulfillmentUC:    fulfillmentUC,
		linker:           linker,
		storagePublicURL: cfg.Storage.PublicBaseURL,
		bucket:           cfg.Storage.Bucket,
		log:              logger,
	}

	r := chi.NewRouter()
	r.Use(TraceID(logger), RequestLog(logger), Recover(logger))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/pay", func(r chi.Router) {
		r.Get("/checkout", s.handleCheckout)
		// The callback carries no session; the signature and the
		// server-side checks are the only authentication.
		r.Get("/callback", s.handleCallback)
		r.Get("/download/{file}", s.handleDownload)
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.server.Handler }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("payment server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
