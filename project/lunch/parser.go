package lunch

import (
	"regexp"
	"strings"

	"lunch-scheduler/project/domain"
)

// appIDPrefix はBot/AppのIDの先頭文字です。このIDへのメンションは参加者に含めません
const appIDPrefix = "A"

var mentionPattern = regexp.MustCompile(`<@(\w+)>`)

// space は日付と時刻の区切りです。全角スペース (U+3000) やノーブレークスペースも含みます
const space = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`

// dateTimePatterns は優先順位順の日時パターンです
var dateTimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2}` + space + `\d{2}:\d{2})`), // 2024-07-20 12:30
	regexp.MustCompile(`(\d{1,2}/\d{1,2}` + space + `\d{2}:\d{2})`),   // 7/20 12:30
	regexp.MustCompile(`(\d{1,2}-\d{1,2}` + space + `\d{2}:\d{2})`),   // 7-20 12:30
}

// ParseMessage はメッセージ本文から参加者と日時を抽出します。
// selfUserID はBot自身のユーザーIDで、参加者から除外されます
func ParseMessage(text, selfUserID string) domain.ExtractionResult {
	rawMention := strings.Contains(text, "@")

	var users []string
	if rawMention {
		users = extractUsers(text, selfUserID)
	}

	dateTime, hasDateTime := extractDateTime(text)

	// 生の "@" があっても、除外後に参加者が残らなければメンションなし
	hasMentions := rawMention && len(users) > 0

	return domain.ExtractionResult{
		MentionedUsers:      users,
		DateTimeToken:       dateTime,
		HasMentions:         hasMentions,
		HasDateTime:         hasDateTime,
		ShouldStartWorkflow: hasDateTime || (hasMentions && len(users) > 0),
	}
}

// extractUsers は <@USERID> 形式のメンションを出現順に抽出します。重複は除去しません
func extractUsers(text, selfUserID string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)

	var result []string
	for _, match := range matches {
		userID := match[1]

		// Bot自身を除外
		if selfUserID != "" && userID == selfUserID {
			continue
		}

		// App/Bot を除外
		if strings.HasPrefix(userID, appIDPrefix) {
			continue
		}

		result = append(result, userID)
	}

	return result
}

// extractDateTime は最初にマッチしたパターンの日時文字列をそのまま返します
func extractDateTime(text string) (string, bool) {
	for _, pattern := range dateTimePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1], true
		}
	}
	return "", false
}
