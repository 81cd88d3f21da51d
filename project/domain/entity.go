package domain

import (
	"fmt"
	"strings"
)

// RawMessage は app_mention イベントで受信したメッセージです
type RawMessage struct {
	// Text はメッセージ本文（<@USERID> 形式のメンションを含む）
	Text string `json:"text"`

	// ChannelID はメッセージが投稿されたチャンネルのID
	ChannelID string `json:"channel_id"`

	// AuthorUserID はメッセージを投稿したユーザーのID
	AuthorUserID string `json:"user_id"`
}

// ExtractionResult はメッセージから抽出した参加者と日時です。生成後は変更しません
type ExtractionResult struct {
	// MentionedUsers はBot自身とApp IDを除いたメンション対象（出現順、重複あり）
	MentionedUsers []string `json:"extracted_users"`

	// DateTimeToken はマッチした日時文字列そのもの。見つからない場合は空文字
	DateTimeToken string `json:"extracted_datetime"`

	HasMentions         bool `json:"has_mentions"`
	HasDateTime         bool `json:"has_datetime"`
	ShouldStartWorkflow bool `json:"should_start_workflow"`
}

// Intent はランチ調整リクエストの種類です
type Intent int

const (
	// IntentInvalid はメンションも日時もないリクエスト
	IntentInvalid Intent = iota
	// IntentDateTimeOnly は日時のみ指定（参加者募集）
	IntentDateTimeOnly
	// IntentMentionsOnly はメンションのみ指定（日程調整）
	IntentMentionsOnly
	// IntentBoth は日時とメンションの両方を指定（参加確認）
	IntentBoth
)

func (i Intent) String() string {
	switch i {
	case IntentDateTimeOnly:
		return "datetime_only"
	case IntentMentionsOnly:
		return "mentions_only"
	case IntentBoth:
		return "both"
	default:
		return "invalid"
	}
}

// UserEmailInfo はユーザーディレクトリから取得した参加者情報です。
// 取得に失敗した場合も Email を空にしてレコードを残します
type UserEmailInfo struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
}

// CalendarEvent はカレンダー上の既存予定です
type CalendarEvent struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Status  string `json:"status"`
}

// TimeSlot は空き時間の区間です（RFC 3339 文字列）
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CalendarWindow は1ユーザー分のカレンダー取得結果です
type CalendarWindow struct {
	Events    []CalendarEvent `json:"events"`
	FreeSlots []TimeSlot      `json:"free_time_slots"`
}

// BookingRecord は LunchBookings に保存するランチ予約です。
// 書き込みは一度きりで、更新・削除はありません
type BookingRecord struct {
	// BookingID は主キー（UUID）
	BookingID string `json:"booking_id" firestore:"booking_id"`

	// UserID は予約したユーザーのID
	UserID string `json:"user_id" firestore:"user_id"`

	// LunchDateTime は抽出した日時文字列（未指定なら空）
	LunchDateTime string `json:"lunch_datetime" firestore:"lunch_datetime"`

	// Participants は参加者IDをカンマで連結した文字列
	Participants string `json:"participants" firestore:"participants"`

	// Channel は呼び出し側から明示的に渡された場合のみ設定されます
	Channel string `json:"channel" firestore:"channel"`

	// CreatedAt は作成日時（UTC, ISO-8601）
	CreatedAt string `json:"created_at" firestore:"created_at"`
}

// ParticipantIDs は保存形式の Participants を元の順序のID一覧に戻します
func (b BookingRecord) ParticipantIDs() []string {
	if b.Participants == "" {
		return nil
	}
	return strings.Split(b.Participants, ",")
}

// Validate はRawMessageの必須項目を検証します
func (m RawMessage) Validate() error {
	if strings.TrimSpace(m.ChannelID) == "" {
		return fmt.Errorf("%w: ChannelIDは必須項目です", ErrInvalid)
	}
	if strings.TrimSpace(m.AuthorUserID) == "" {
		return fmt.Errorf("%w: AuthorUserIDは必須項目です", ErrInvalid)
	}
	return nil
}

// Validate はBookingRecordの必須項目を検証します
func (b BookingRecord) Validate() error {
	if strings.TrimSpace(b.BookingID) == "" {
		return fmt.Errorf("%w: BookingIDは必須項目です", ErrInvalid)
	}
	if strings.TrimSpace(b.UserID) == "" {
		return fmt.Errorf("%w: UserIDは必須項目です", ErrInvalid)
	}
	if strings.TrimSpace(b.CreatedAt) == "" {
		return fmt.Errorf("%w: CreatedAtは必須項目です", ErrInvalid)
	}
	return nil
}
