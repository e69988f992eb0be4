package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/csinmamit/membership/docs"
	"github.com/csinmamit/membership/internal/app/api/handlers"
	"github.com/csinmamit/membership/internal/app/service/membership"
	"github.com/csinmamit/membership/internal/app/service/payment"
	"github.com/csinmamit/membership/internal/app/service/statistics"
	"github.com/csinmamit/membership/internal/platform/firebase"
	cfgpkg "github.com/csinmamit/membership/pkg/config"

	mw "github.com/csinmamit/membership/internal/app/api/middleware"

	metrics "github.com/csinmamit/membership/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	lc fx.Lifecycle,
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	gdb *gorm.DB,
	verifier firebase.IdentityVerifier,
	payments payment.PaymentManager,
	ledger *membership.Ledger,
	stats *statistics.Service,
) error {
	if cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{Logger: log})
		p.Use(r)
		serve(lc, log, "metrics", cfg.MetricsAddr, p.Router())
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	auth := mw.RequireSubject(verifier, log)

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub, sqlDB)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	rzp := r.Group("/api/razorpay")
	rzp.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterRazorpayRoutes(rzp, payments, cfg, log, auth)

	member := r.Group("/api/membership")
	member.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterMembershipRoutes(member, ledger, log, auth)

	admin := r.Group("/api/v1/admin")
	admin.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log), auth, mw.RequireAdmin(ledger, log))
	handlers.RegisterAdminRoutes(admin, ledger, stats, log)
	return nil
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serve(lc, log, "HTTP", addr, r)
}

func serve(lc fx.Lifecycle, log *zap.SugaredLogger, name, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting "+name+" server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("%s server error: %v", name, err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping " + name + " server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
