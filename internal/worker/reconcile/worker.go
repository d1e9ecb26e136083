// Package reconcile runs the periodic provider balance reconciliation sweep.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Worker периодически запускает пересчет балансов по cron-расписанию
// Запуски не накладываются: если предыдущий проход еще идет, следующий пропускается
type Worker struct {
	cron       *cron.Cron
	reconciler Reconciler
	logger     Logger
	timeout    time.Duration
	parent     context.Context
}

// New создает воркер; spec - cron-выражение или дескриптор вида "@every 1h"
// timeout ограничивает один проход (0 - без ограничения)
func New(reconciler Reconciler, spec string, timeout time.Duration, logger Logger) (*Worker, error) {
	w := &Worker{
		reconciler: reconciler,
		logger:     logger,
		timeout:    timeout,
		parent:     context.Background(),
	}

	cronLog := cronLogger{logger: logger}
	w.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := w.cron.AddFunc(spec, func() { w.RunOnce(w.parent) }); err != nil {
		return nil, fmt.Errorf("reconcile: invalid schedule %q: %w", spec, err)
	}

	return w, nil
}

// Start запускает планировщик в фоне; ctx отменяет текущий проход при остановке сервиса
func (w *Worker) Start(ctx context.Context) {
	w.parent = ctx
	w.cron.Start()
	w.logger.Info("Reconcile worker started, next run at %s", w.next().Format(time.RFC3339))
}

// Stop останавливает планировщик и ждет завершения текущего прохода
func (w *Worker) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		w.logger.Info("Reconcile worker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reconcile: stop: %w", ctx.Err())
	}
}

// RunOnce выполняет один проход пересчета
// Ошибки по отдельным исполнителям не прерывают проход
func (w *Worker) RunOnce(ctx context.Context) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	started := time.Now()
	succeeded, failed, err := w.reconciler.RecomputeAll(ctx)
	if err != nil {
		w.logger.Error("Reconcile: sweep aborted after %s (succeeded=%d, failed=%d): %v",
			time.Since(started), succeeded, failed, err)
		return
	}

	if failed > 0 {
		w.logger.Warn("Reconcile: sweep finished in %s with failures: succeeded=%d, failed=%d",
			time.Since(started), succeeded, failed)
		return
	}

	w.logger.Info("Reconcile: sweep finished in %s, providers=%d", time.Since(started), succeeded)
}

func (w *Worker) next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger адаптирует Logger к интерфейсу cron.Logger
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
