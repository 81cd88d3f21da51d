package service

import (
	"context"
	"time"

	"lunch-scheduler/project/domain"
)

// UserDirectory は Slack ユーザー情報取得のポートです
type UserDirectory interface {
	// LookupUser は指定ユーザーのメールアドレスと表示名を取得します
	// ユーザーが存在しない場合は domain.ErrNotFound を返します
	// メールアドレスを公開していないユーザーは Email が空で返ります
	LookupUser(ctx context.Context, userID string) (*domain.UserEmailInfo, error)
}

// CalendarRequest はカレンダー取得の条件です
type CalendarRequest struct {
	Email string
	Start time.Time
	End   time.Time
}

// CalendarPort はカレンダー取得のポートです
type CalendarPort interface {
	// Lookup は期間内の予定と空き時間を取得します
	// 認証情報が未設定の場合は domain.ErrConfiguration を返します
	Lookup(ctx context.Context, req CalendarRequest) (*domain.CalendarWindow, error)
}

// MessagePort はチャンネルへのメッセージ投稿のポートです
type MessagePort interface {
	// PostMessage は指定チャンネルにメッセージを投稿します
	PostMessage(ctx context.Context, channelID, text string) error
}
