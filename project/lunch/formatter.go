package lunch

import (
	"fmt"
	"strings"
	"time"

	"lunch-scheduler/project/domain"
)

// UsageMessage はメンションも日時もない場合に返す使用例です
const UsageMessage = "❌ 使用例: `/lunch @user1 @user2` または `/lunch 2024-07-20 12:30`"

// slotTimeLayout は空き時間スロットの表示形式です
const slotTimeLayout = "15:04:05"

// Formatter は予約確認メッセージを組み立てます。I/O は行いません
type Formatter struct {
	loc *time.Location
}

// NewFormatter は空き時間を loc の現地時刻で表示する Formatter を作成します。
// loc が nil の場合は UTC を使います
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// Format は intent に応じた確認メッセージを返します。
// freeSlots は IntentMentionsOnly の場合のみ表示されます
func (f *Formatter) Format(intent domain.Intent, authorUserID, dateTime string, participants []string, freeSlots []domain.TimeSlot) string {
	switch intent {
	case domain.IntentDateTimeOnly:
		return fmt.Sprintf("🍽️ **ランチ参加者募集**\n\n"+
			"👤 **投稿者**: <@%s>\n"+
			"📅 **日時**: %s\n"+
			"👥 **参加者**: 募集中\n\n"+
			"%sにランチできる方はリアクションしてください！ 🎉",
			authorUserID, dateTime, dateTime)

	case domain.IntentMentionsOnly:
		return fmt.Sprintf("🍽️ **ランチ日程調整**\n\n"+
			"👤 **投稿者**: <@%s>\n"+
			"👥 **参加者**: %s\n"+
			"📅 **日時**: 調整中%s\n\n"+
			"みんなでランチしませんか？都合の良い日時を教えてください！ 🗓️",
			authorUserID, mentionList(participants), f.calendarSection(freeSlots))

	case domain.IntentBoth:
		return fmt.Sprintf("🍽️ **ランチ参加確認**\n\n"+
			"👤 **投稿者**: <@%s>\n"+
			"📅 **日時**: %s\n"+
			"👥 **参加者**: %s\n\n"+
			"%sのランチに参加できますか？\n参加可能な方はリアクションしてください！ ✅",
			authorUserID, dateTime, mentionList(participants), dateTime)

	default:
		return UsageMessage
	}
}

// calendarSection は空き時間スロットの箇条書きを返します。
// 解釈できないスロットは行ごと捨て、1行も残らなければ空文字を返します
func (f *Formatter) calendarSection(slots []domain.TimeSlot) string {
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		line, ok := f.slotLine(slot)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n📅 **空き時間スロット**:\n" + strings.Join(lines, "\n")
}

func (f *Formatter) slotLine(slot domain.TimeSlot) (string, bool) {
	start, err := time.Parse(time.RFC3339, slot.Start)
	if err != nil {
		return "", false
	}
	end, err := time.Parse(time.RFC3339, slot.End)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("• %s - %s", start.In(f.loc).Format(slotTimeLayout), end.In(f.loc).Format(slotTimeLayout)), true
}

// mentionList は参加者を "<@U1>, <@U2>" 形式で連結します
func mentionList(participants []string) string {
	mentions := make([]string, len(participants))
	for i, p := range participants {
		mentions[i] = fmt.Sprintf("<@%s>", p)
	}
	return strings.Join(mentions, ", ")
}
