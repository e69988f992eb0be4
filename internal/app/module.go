package app

import (
	"context"
	"time"

	"github.com/csinmamit/membership/internal/app/api/server"
	"github.com/csinmamit/membership/internal/app/service/membership"
	notificationlog "github.com/csinmamit/membership/internal/app/service/notification_log"
	"github.com/csinmamit/membership/internal/app/service/notifier"
	"github.com/csinmamit/membership/internal/app/service/payment"
	"github.com/csinmamit/membership/internal/app/service/pricing"
	"github.com/csinmamit/membership/internal/app/service/statistics"
	"github.com/csinmamit/membership/internal/platform/db"
	"github.com/csinmamit/membership/internal/platform/firebase"
	"github.com/csinmamit/membership/internal/platform/mail"
	"github.com/csinmamit/membership/internal/platform/razorpay"
	"github.com/csinmamit/membership/internal/platform/redis"
	"github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// drainNotifier holds shutdown until queued emails are sent.
func drainNotifier(lc fx.Lifecycle, n *notifier.EmailNotifier) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				n.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	redis.Module,
	firebase.Module,
	razorpay.Module,
	mail.Module,
	pricing.Module,
	membership.Module,
	notificationlog.Module,
	notifier.Module,
	payment.Module,
	statistics.Module,
	server.Module,
	fx.Invoke(drainNotifier),
)
