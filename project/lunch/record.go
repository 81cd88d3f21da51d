package lunch

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"lunch-scheduler/project/domain"
)

// createdAtLayout は ISO-8601 (UTC, ミリ秒付き) の形式です
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// RecordBuilder は保存用の BookingRecord を組み立てます
type RecordBuilder struct {
	newID func() string
	now   func() time.Time
}

// NewRecordBuilder はランダムな UUID と現在時刻を使う RecordBuilder を作成します
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Build は予約レコードを作成します。失敗しません。
// participants は表示用の <@ID> 形式ではなくカンマ区切りのIDとして保存されます
func (rb *RecordBuilder) Build(authorUserID, dateTime string, participants []string, channel string) domain.BookingRecord {
	return domain.BookingRecord{
		BookingID:     rb.newID(),
		UserID:        authorUserID,
		LunchDateTime: dateTime,
		Participants:  strings.Join(participants, ","),
		Channel:       channel,
		CreatedAt:     rb.now().UTC().Format(createdAtLayout),
	}
}
