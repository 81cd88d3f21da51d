package dto

import "lunch-scheduler/project/domain"

// LunchTaskPayload は app_mention イベントからワークフローに渡すペイロードです
// Cloud Tasks 経由の場合は JSON 本文として /tasks/lunch に届きます
type LunchTaskPayload struct {
	EventID   string `json:"event_id"`
	TeamID    string `json:"team_id"`
	Text      string `json:"text"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

// RawMessage はワークフローの入力に変換します
func (p LunchTaskPayload) RawMessage() *domain.RawMessage {
	return &domain.RawMessage{
		Text:         p.Text,
		ChannelID:    p.ChannelID,
		AuthorUserID: p.UserID,
	}
}
