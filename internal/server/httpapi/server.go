// Package httpapi exposes the service layer over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astrotechlabs/astrotech-api/internal/logging"
	"github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/services"
)

type Server struct {
	address       string
	logger        logging.Logger
	users         *services.UserService
	orders        *services.OrderService
	payments      *services.PaymentService
	consultations *services.ConsultationService
	reports       *services.ReportService
	corsOrigins   []string
}

func NewServer(cfg *config.Config, l logging.Logger,
	us *services.UserService, os *services.OrderService, ps *services.PaymentService,
	cs *services.ConsultationService, rs *services.ReportService) *Server {
	return &Server{
		address:       cfg.EndpointAddr,
		logger:        l.With("module", "http_server"),
		users:         us,
		orders:        os,
		payments:      ps,
		consultations: cs,
		reports:       rs,
		corsOrigins:   cfg.CORSAllowedOrigins,
	}
}

func (s *Server) initRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())

	router.GET("/", s.Root)
	router.GET("/health", s.Health)

	router.POST("/signup", s.Signup)
	router.POST("/token", s.Token)

	// gateway callback carries its own HMAC, no bearer token
	router.POST("/verify-payment", s.VerifyPayment)

	authorized := router.Group("/")
	authorized.Use(s.authMiddleware())
	{
		authorized.POST("/create-order", s.CreateOrder)
		authorized.GET("/users/me", s.CurrentUser)
		authorized.POST("/consultation", s.Consultation)
		authorized.POST("/generate-report", s.GenerateReport)
	}

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.initRoutes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
