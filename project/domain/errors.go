package domain

import "errors"

// ドメインエラー定義
var (
	// ErrInvalid は不正な値が設定された場合のエラー（再試行しない）
	ErrInvalid = errors.New("ドメイン: 不正な値です")

	// ErrNotFound は要求されたリソースが見つからない場合のエラー
	ErrNotFound = errors.New("ドメイン: リソースが見つかりません")

	// ErrLookup はユーザー情報やカレンダーの取得に失敗した場合のエラー。
	// 呼び出し側で回復し、データなしとして処理を続けます
	ErrLookup = errors.New("ドメイン: 外部情報の取得に失敗しました")

	// ErrConfiguration は認証情報などの設定が不足している場合のエラー
	ErrConfiguration = errors.New("ドメイン: 設定が不足しています")

	// ErrPersistence は予約の保存に失敗した場合のエラー。リクエスト全体が失敗します
	ErrPersistence = errors.New("ドメイン: 保存に失敗しました")

	// ErrAlreadyExists は同じ主キーのレコードが既に存在する場合のエラー
	ErrAlreadyExists = errors.New("ドメイン: リソースが既に存在します")
)
