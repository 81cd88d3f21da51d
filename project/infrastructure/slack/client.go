package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"lunch-scheduler/project/domain"
)

// SlackClient は service.UserDirectory と service.MessagePort の Slack SDK 実装です
type SlackClient struct {
	cli *slack.Client
}

// NewSlackClient は Bot トークンで Slack クライアントを初期化します
// opts はテストで API の URL を差し替えるために使います
func NewSlackClient(token string, opts ...slack.Option) *SlackClient {
	return &SlackClient{cli: slack.New(token, opts...)}
}

// LookupUser は users.info でメールアドレスと表示名を取得します
// ユーザーが存在しない場合は domain.ErrNotFound、それ以外の API エラーは domain.ErrLookup を返します
func (sc *SlackClient) LookupUser(ctx context.Context, userID string) (*domain.UserEmailInfo, error) {
	user, err := sc.cli.GetUserInfoContext(ctx, userID)
	if err != nil {
		if isUserNotFound(err) {
			return nil, fmt.Errorf("slack: %w (user=%s)", domain.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("slack: %w (user=%s): %w", domain.ErrLookup, userID, err)
	}

	return &domain.UserEmailInfo{
		UserID:      userID,
		Email:       user.Profile.Email,
		DisplayName: displayName(user),
	}, nil
}

// PostMessage はチャンネルにメッセージを投稿します
func (sc *SlackClient) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := sc.cli.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("slack: メッセージ投稿失敗 (channel=%s): %w", channelID, err)
	}

	return nil
}

// BotUserID は auth.test で Bot 自身のユーザー ID を取得します
func (sc *SlackClient) BotUserID(ctx context.Context) (string, error) {
	resp, err := sc.cli.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("slack: auth.test 失敗: %w", err)
	}
	return resp.UserID, nil
}

// isUserNotFound は users.info の user_not_found エラーを判定します
func isUserNotFound(err error) bool {
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return slackErr.Err == "user_not_found"
	}
	return strings.Contains(err.Error(), "user_not_found")
}

// displayName はプロフィールの表示名、本名、ユーザー名の順に空でない名前を返します
func displayName(user *slack.User) string {
	for _, name := range []string{user.Profile.DisplayName, user.Profile.RealName, user.RealName, user.Name} {
		if name != "" {
			return name
		}
	}
	return "Unknown"
}
