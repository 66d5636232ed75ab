package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPService runs an http.Server under a Lifecycle.
type HTTPService struct {
	srv     *http.Server
	timeout time.Duration
	logger  *zap.Logger
}

// NewHTTPService creates an HTTPService for handler on addr.
//
// Precondition: handler and logger are non-nil.
func NewHTTPService(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) *HTTPService {
	return &HTTPService{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		timeout: shutdownTimeout,
		logger:  logger,
	}
}

// Start serves until Stop. A graceful shutdown is not an error.
func (s *HTTPService) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop waits up to the shutdown timeout for in-flight requests.
func (s *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
}
