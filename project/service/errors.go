package service

import "lunch-scheduler/project/domain"

// CalendarCredentialsMissingMessage はカレンダー認証情報が未設定の場合のエラーメッセージです
const CalendarCredentialsMissingMessage = "Google OAuth認証情報が設定されていません。GOOGLE_CLIENT_IDとGOOGLE_CLIENT_SECRETを設定してください。"

// calendarErrorPrefix はカレンダー取得時の実行時エラーの接頭辞です
const calendarErrorPrefix = "Google Calendar API呼び出しエラー: "

// PersistenceError は予約の保存失敗です。メッセージはそのまま呼び出し元に返します
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "データストアへの保存に失敗しました: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is は errors.Is(err, domain.ErrPersistence) を満たします
func (e *PersistenceError) Is(target error) bool {
	return target == domain.ErrPersistence
}
