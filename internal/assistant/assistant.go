// Package assistant answers free-text questions about the ledger by handing
// the full data set to a text generation service.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"payroll/internal/core"
	applog "payroll/internal/log"
)

const (
	// UnavailableMessage is returned when no generator is configured.
	UnavailableMessage = "عذراً، خدمة المساعد الذكي غير متاحة حالياً. يرجى التأكد من إعداد مفتاح API."
	// FailureMessage is returned when the generator fails for any reason.
	FailureMessage = "حدث خطأ أثناء محاولة الاتصال بالمساعد الذكي. يرجى المحاولة مرة أخرى لاحقاً."
)

// Generator turns a prompt into text. Implementations report transport and
// authentication problems as *ServiceError.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ServiceError wraps a failure of the external generation service.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("assistant %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Bridge builds prompts and shields callers from generator failures.
type Bridge struct {
	gen     Generator
	timeout time.Duration
	now     func() time.Time
	group   singleflight.Group
}

type Option func(*Bridge)

// WithTimeout bounds each generator call. Zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// NewBridge returns a bridge over gen. A nil gen yields a bridge that always
// answers with UnavailableMessage.
func NewBridge(gen Generator, opts ...Option) *Bridge {
	b := &Bridge{gen: gen, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Available reports whether a generator is configured.
func (b *Bridge) Available() bool {
	return b != nil && b.gen != nil
}

// Ask returns the generator's reply verbatim, or one of the fixed messages.
// It never returns an error.
func (b *Bridge) Ask(ctx context.Context, question string, employees []core.Employee, withdrawals []core.Withdrawal) string {
	if !b.Available() {
		return UnavailableMessage
	}
	if strings.TrimSpace(question) == "" {
		return ""
	}

	prompt, err := BuildPrompt(question, employees, withdrawals, b.now())
	if err != nil {
		logger(ctx).ErrorContext(ctx, "Failed to build assistant prompt", applog.FieldError, err)
		return FailureMessage
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := b.gen.GenerateText(ctx, prompt)
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) {
			logger(ctx).ErrorContext(ctx, "Assistant service failed",
				applog.FieldOperation, se.Op, applog.FieldError, se.Err, applog.FieldErrorType, applog.ErrorTypeNetwork)
		} else {
			logger(ctx).ErrorContext(ctx, "Assistant call failed", applog.FieldError, err)
		}
		return FailureMessage
	}
	logger(ctx).InfoContext(ctx, "Assistant replied",
		applog.FieldOperation, applog.OpAsk,
		applog.FieldDuration, time.Since(start).Milliseconds(),
		"reply_len", len(reply))
	return reply
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentAssistant)
}

// AskFrom is Ask with at most one pending request per origin and question.
// Resubmitting a question while the same origin's identical request is in
// flight waits for and shares its reply; different questions run separately.
// The second result reports whether the reply was shared.
func (b *Bridge) AskFrom(ctx context.Context, origin, question string, employees []core.Employee, withdrawals []core.Withdrawal) (string, bool) {
	key := origin + "\x00" + strings.TrimSpace(question)
	v, _, shared := b.group.Do(key, func() (any, error) {
		return b.Ask(context.WithoutCancel(ctx), question, employees, withdrawals), nil
	})
	return v.(string), shared
}
