package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack/slackevents"

	"lunch-scheduler/project/dto"
	"lunch-scheduler/project/infrastructure/httpsec"
	"lunch-scheduler/project/infrastructure/metrics"
)

// maxEventBodyBytes は Slack イベント本文の上限です
const maxEventBodyBytes = 1 << 20

// Dispatcher はメンションからワークフローを開始します（Cloud Tasks またはプロセス内）
type Dispatcher interface {
	Dispatch(ctx context.Context, payload *dto.LunchTaskPayload) error
}

// EventsHandler は Slack Events API からのイベントを処理します
type EventsHandler struct {
	signingSecret string
	dispatcher    Dispatcher
	logger        *slog.Logger
}

// NewEventsHandler はイベントハンドラーを作成します
func NewEventsHandler(signingSecret string, dispatcher Dispatcher, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		signingSecret: signingSecret,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// ServeHTTP は Slack イベント受信エンドポイントです
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	if err != nil {
		http.Error(w, "リクエスト本体の読み込み失敗", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// まず url_verification かどうかを確認（署名検証の前に）
	var preCheck struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &preCheck); err == nil && preCheck.Type == slackevents.URLVerification {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(preCheck.Challenge))
		return
	}

	if err := httpsec.VerifySlackSignature(h.signingSecret, r.Header, body); err != nil {
		h.logger.Warn("署名検証失敗", slog.Any("error", err))
		http.Error(w, "署名検証失敗", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "JSON パース失敗", http.StatusBadRequest)
		return
	}

	// event_callback のみ処理
	if event.Type != slackevents.CallbackEvent {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.handleEvent(r.Context(), event); err != nil {
		// Slack側への応答は成功にして、ログだけ記録
		h.logger.Error("イベント処理エラー", slog.Any("error", err))
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent は app_mention イベントをワークフローに渡します
func (h *EventsHandler) handleEvent(ctx context.Context, event slackevents.EventsAPIEvent) error {
	mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if !ok {
		return nil
	}

	// Bot が投稿したメッセージは無視
	if mention.BotID != "" {
		return nil
	}

	metrics.MentionsReceived.Inc()

	payload := &dto.LunchTaskPayload{
		TeamID:    event.TeamID,
		Text:      mention.Text,
		ChannelID: mention.Channel,
		UserID:    mention.User,
	}
	if cb, ok := event.Data.(*slackevents.EventsAPICallbackEvent); ok {
		payload.EventID = cb.EventID
	}

	h.logger.Info("メンションを受信しました",
		slog.String("event_id", payload.EventID),
		slog.String("channel_id", payload.ChannelID),
		slog.String("user_id", payload.UserID),
	)

	return h.dispatcher.Dispatch(ctx, payload)
}
