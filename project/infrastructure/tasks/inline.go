package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lunch-scheduler/project/dto"
	"lunch-scheduler/project/service"
)

// InlineDispatcher はワークフローをプロセス内の goroutine で実行します（Cloud Tasks 未設定時）
type InlineDispatcher struct {
	svc     service.LunchService
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewInlineDispatcher は InlineDispatcher を作成します
func NewInlineDispatcher(svc service.LunchService, timeout time.Duration, logger *slog.Logger) *InlineDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineDispatcher{svc: svc, timeout: timeout, logger: logger}
}

// Dispatch はワークフローを非同期に開始してすぐに戻ります
// リクエストのキャンセルは引き継がず、WorkflowTimeout で打ち切ります
func (d *InlineDispatcher) Dispatch(ctx context.Context, payload *dto.LunchTaskPayload) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		runCtx := context.WithoutCancel(ctx)
		if d.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, d.timeout)
			defer cancel()
		}

		if _, err := d.svc.HandleMention(runCtx, payload.RawMessage()); err != nil {
			d.logger.Error("ワークフロー実行エラー",
				slog.String("event_id", payload.EventID),
				slog.Any("error", err),
			)
		}
	}()
	return nil
}

// Wait は実行中のワークフローがすべて終わるまで待ちます
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}

// Close は実行中のワークフローの完了を待ちます
func (d *InlineDispatcher) Close() error {
	d.Wait()
	return nil
}
