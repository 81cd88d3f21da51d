package domain

import (
	"context"
)

// BookingRepository はランチ予約の永続化を担当します
type BookingRepository interface {
	// Put は予約を BookingID をキーに保存します
	// 同じ BookingID のレコードが既にある場合は domain.ErrAlreadyExists を返します（書き込みは一度きり）
	// バリデーションエラー時は domain.ErrInvalid を返します
	Put(ctx context.Context, b *BookingRecord) error

	// Find は指定した BookingID の予約を取得します
	// 存在しない場合は domain.ErrNotFound を返します
	Find(ctx context.Context, bookingID string) (*BookingRecord, error)

	// Close は接続などのリソースを解放します
	Close() error
}
