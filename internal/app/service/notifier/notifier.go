package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/internal/platform/mail"
	cfgpkg "github.com/csinmamit/membership/pkg/config"
	"github.com/csinmamit/membership/pkg/logctx"
	"github.com/csinmamit/membership/pkg/types"
)

const sendTimeout = 30 * time.Second

// Notice is everything the confirmation emails show.
type Notice struct {
	Name           string
	Email          string
	Usn            string
	MembershipType string
	EndDate        time.Time
	OrderID        string
	PaymentID      string
	TotalPrice     int64
	PlatformFee    int64
	Currency       string
	Source         types.PaymentSource
}

// Notifier announces activated memberships. Implementations must not block
// the caller or report failures to it.
type Notifier interface {
	MembershipActivated(ctx context.Context, n Notice)
}

type EmailNotifier struct {
	sender     mail.EmailSender
	adminEmail string
	log        *zap.SugaredLogger
	wg         sync.WaitGroup
}

var _ Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(sender mail.EmailSender, cfg *cfgpkg.Config, log *zap.SugaredLogger) *EmailNotifier {
	return &EmailNotifier{sender: sender, adminEmail: cfg.SMTP.AdminEmail, log: log}
}

func (e *EmailNotifier) MembershipActivated(ctx context.Context, n Notice) {
	lg := logctx.FromCtx(ctx, e.log).With("payment_id", n.PaymentID)
	if n.Email == "" || n.Name == "" {
		lg.Infow("membership_email_skipped", "reason", "missing_contact")
		return
	}
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := e.send(ctx, n); err != nil {
			lg.Warnw("membership_email_failed", "err", err)
			return
		}
		lg.Infow("membership_email_sent")
	}()
}

// send delivers the member confirmation, then the admin notice. The admin
// notice is attempted even if the member email fails.
func (e *EmailNotifier) send(ctx context.Context, n Notice) error {
	var firstErr error
	body, err := render(memberTmpl, n)
	if err == nil {
		_, err = e.sender.SendEmail(ctx, n.Email, memberSubject, body)
	}
	if err != nil {
		firstErr = fmt.Errorf("member email: %w", err)
	}

	if e.adminEmail != "" {
		body, err := render(adminTmpl, n)
		if err == nil {
			_, err = e.sender.SendEmail(ctx, e.adminEmail, adminSubject, body)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("admin email: %w", err)
		}
	}
	return firstErr
}

// Wait blocks until in-flight emails are done.
func (e *EmailNotifier) Wait() {
	e.wg.Wait()
}

func render(t *template.Template, n Notice) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var Module = fx.Options(
	fx.Provide(
		NewEmailNotifier,
		func(e *EmailNotifier) Notifier { return e },
	),
)
