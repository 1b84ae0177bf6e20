package worker

import (
	"context"
	"fmt"
	"time"

	"payroll/internal/amqp"
	"payroll/internal/core"
	"payroll/internal/ledger"
	applog "payroll/internal/log"
	"payroll/internal/sheets"
)

// Source is the ledger view the worker reads. Reload picks up writes made
// by the API process through the shared backend.
type Source interface {
	Reload(ctx context.Context) error
	Snapshot() ledger.Snapshot
}

// ReportSyncWorker mirrors monthly reports into a sheet whenever the ledger
// changes.
type ReportSyncWorker struct {
	source Source
	sheets sheets.ReportWriter
	now    func() time.Time
}

func NewReportSyncWorker(source Source, writer sheets.ReportWriter) *ReportSyncWorker {
	return &ReportSyncWorker{source: source, sheets: writer, now: time.Now}
}

// HandleEvent rewrites the reports of every period the event touched. Events
// without periods (employee changes) refresh the current month.
func (w *ReportSyncWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	periods, err := msg.CorePeriods()
	if err != nil {
		return fmt.Errorf("decode periods: %w", err)
	}
	if len(periods) == 0 {
		periods = []core.Period{core.PeriodOf(w.now())}
	}

	logger(ctx).InfoContext(ctx, "Processing ledger event",
		applog.FieldEventKind, msg.Kind,
		applog.FieldRevision, msg.Revision,
		applog.FieldCount, len(periods))

	return w.SyncPeriods(ctx, periods...)
}

// SyncCurrent rewrites the current month's report. Run periodically as a
// backstop for lost messages.
func (w *ReportSyncWorker) SyncCurrent(ctx context.Context) error {
	return w.SyncPeriods(ctx, core.PeriodOf(w.now()))
}

func (w *ReportSyncWorker) SyncPeriods(ctx context.Context, periods ...core.Period) error {
	if err := w.source.Reload(ctx); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	snap := w.source.Snapshot()

	for _, p := range periods {
		report := core.BuildReport(snap.Employees, snap.Withdrawals, p)
		if err := w.sheets.WriteReport(ctx, report); err != nil {
			return fmt.Errorf("write report %s: %w", p, err)
		}
		logger(ctx).InfoContext(ctx, "Report synced",
			applog.FieldOperation, applog.OpSync,
			applog.FieldPeriod, p.String(),
			applog.FieldCount, len(report.Rows),
			applog.FieldRevision, snap.Revision)
	}
	return nil
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentWorker)
}

// Run calls SyncCurrent every interval until ctx is done.
func (w *ReportSyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.SyncCurrent(ctx); err != nil {
				logger(ctx).ErrorContext(ctx, "Periodic sync failed", applog.FieldError, err)
			}
		}
	}
}
