package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"lunch-scheduler/project/dto"
	"lunch-scheduler/project/service"
)

// TaskHandler は Cloud Tasks から届いたワークフローを実行します
type TaskHandler struct {
	lunchService service.LunchService
	timeout      time.Duration
	logger       *slog.Logger
}

// NewTaskHandler はタスクハンドラーを作成します
func NewTaskHandler(lunchService service.LunchService, timeout time.Duration, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		lunchService: lunchService,
		timeout:      timeout,
		logger:       logger,
	}
}

// ServeHTTP は /tasks/lunch エンドポイント
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "リクエスト本体の読み込み失敗", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload dto.LunchTaskPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "JSON パース失敗", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	outcome, err := h.lunchService.HandleMention(ctx, payload.RawMessage())
	if err != nil {
		h.logger.Error("ワークフロー実行エラー",
			slog.String("event_id", payload.EventID),
			slog.Any("error", err),
		)
		// Cloud Tasks 側へは 200 で応答（再試行回避）
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := map[string]string{"status": "ok", "intent": outcome.Intent.String()}
	if outcome.Record != nil {
		resp["booking_id"] = outcome.Record.BookingID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
