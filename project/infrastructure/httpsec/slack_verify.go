package httpsec

import (
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// VerifySlackSignature は Slack からのリクエストの署名を検証します
// X-Slack-Signature と X-Slack-Request-Timestamp ヘッダを確認し、
// 改ざんやリプレイ（5分以上前のタイムスタンプ）を拒否します
func VerifySlackSignature(signingSecret string, header http.Header, body []byte) error {
	if signingSecret == "" {
		return fmt.Errorf("httpsec: signing secret is empty")
	}

	verifier, err := slack.NewSecretsVerifier(header, signingSecret)
	if err != nil {
		return fmt.Errorf("httpsec: invalid signature headers: %w", err)
	}

	if _, err := verifier.Write(body); err != nil {
		return fmt.Errorf("httpsec: %w", err)
	}

	if err := verifier.Ensure(); err != nil {
		return fmt.Errorf("httpsec: signature mismatch: %w", err)
	}

	return nil
}
