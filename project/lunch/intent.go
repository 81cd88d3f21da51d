package lunch

import "lunch-scheduler/project/domain"

// Classify はメンションと日時の有無からリクエストの種類を決定します
func Classify(hasMentions, hasDateTime bool) domain.Intent {
	switch {
	case hasMentions && hasDateTime:
		return domain.IntentBoth
	case hasMentions:
		return domain.IntentMentionsOnly
	case hasDateTime:
		return domain.IntentDateTimeOnly
	default:
		return domain.IntentInvalid
	}
}
