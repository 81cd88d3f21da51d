package service

import (
	"encoding/json"

	"lunch-scheduler/project/domain"
)

// Outcome は1回のワークフロー実行結果です
type Outcome struct {
	// Extraction はメッセージの解析結果
	Extraction domain.ExtractionResult

	// Intent はリクエストの種類
	Intent domain.Intent

	// Emails は参加者情報の取得結果（取得しなかった場合は nil）
	Emails *EmailLookupResult

	// Calendar はカレンダー取得結果（取得しなかった場合は nil）
	Calendar *CalendarResult

	// Record は保存した予約
	Record *domain.BookingRecord

	// Message はチャンネルに投稿したメッセージ
	Message string
}

// EmailLookupResult は参加者情報の取得結果です。
// Users は入力IDと同じ順序で、取得に失敗したユーザーも Email を空にして含みます
type EmailLookupResult struct {
	Users        []domain.UserEmailInfo
	Success      bool
	ErrorMessage string
}

// UsersJSON は Users を JSON 文字列にします
func (r EmailLookupResult) UsersJSON() string {
	return marshalList(r.Users)
}

// CalendarResult はカレンダー取得ステップの結果です。
// 失敗しても予約処理は続行し、空き時間の表示を省略します
type CalendarResult struct {
	Success      bool
	Window       domain.CalendarWindow
	ErrorMessage string
}

// EventsJSON は予定一覧を JSON 文字列にします。空の場合は "[]"
func (r CalendarResult) EventsJSON() string {
	return marshalList(r.Window.Events)
}

// FreeSlotsJSON は空き時間一覧を JSON 文字列にします。空の場合は "[]"
func (r CalendarResult) FreeSlotsJSON() string {
	return marshalList(r.Window.FreeSlots)
}

func marshalList[T any](items []T) string {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
