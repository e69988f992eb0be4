package notification_log

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/csinmamit/membership/internal/models"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/tool"
	"github.com/csinmamit/membership/pkg/types"
)

// Entry describes one verification attempt or webhook delivery.
type Entry struct {
	Source    types.PaymentSource
	Event     string
	UserID    string
	OrderID   string
	PaymentID string
	Data      any
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a payment notification log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.PaymentNotificationLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("notification_log_save_failed", "id", log.ID, "status", log.Status, "err", err)
		}
	}()
}

// Received records that an attempt arrived, before any processing.
func (s *Service) Received(ctx context.Context, e Entry) {
	s.Save(ctx, s.build(ctx, e, models.PaymentNotificationLogStatusReceived, nil))
}

// Handled records the outcome of an attempt. A nil err means handled.
func (s *Service) Handled(ctx context.Context, e Entry, result map[string]any, err error) {
	status := models.PaymentNotificationLogStatusHandled
	if err != nil {
		status = models.PaymentNotificationLogStatusHandleFailed
		if result == nil {
			result = map[string]any{}
		}
		result["error"] = err.Error()
	}
	s.Save(ctx, s.build(ctx, e, status, result))
}

func (s *Service) build(ctx context.Context, e Entry, status models.PaymentNotificationLogStatus, result map[string]any) *models.PaymentNotificationLog {
	dataBytes, _ := json.Marshal(e.Data)
	entry := &models.PaymentNotificationLog{
		Provider:         types.PaymentProviderRazorpay,
		Source:           e.Source,
		Event:            e.Event,
		UserID:           lo.EmptyableToPtr(e.UserID),
		TraceID:          logctx.TraceID(ctx),
		OrderID:          e.OrderID,
		PaymentID:        e.PaymentID,
		NotificationTime: time.Now(),
		Data:             datatypes.JSON(dataBytes),
		Status:           status,
	}
	if result != nil {
		resBytes, _ := json.Marshal(result)
		entry.Result = lo.ToPtr(datatypes.JSON(resBytes))
	}
	return entry
}

// Wait blocks until every pending save has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func registerFlush(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				s.Wait()
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
	fx.Provide(New),
	fx.Invoke(registerFlush),
)
