package httpsec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

// signedHeader は署名済みの Slack リクエストヘッダを作成します
func signedHeader(secret string, ts time.Time, body []byte) http.Header {
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)

	h := http.Header{}
	h.Set("X-Slack-Request-Timestamp", timestamp)
	h.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return h
}

func TestVerifySlackSignature(t *testing.T) {
	body := []byte(`{"type":"event_callback"}`)

	t.Run("valid", func(t *testing.T) {
		err := VerifySlackSignature(testSecret, signedHeader(testSecret, time.Now(), body), body)
		require.NoError(t, err)
	})

	t.Run("tampered body", func(t *testing.T) {
		err := VerifySlackSignature(testSecret, signedHeader(testSecret, time.Now(), body), []byte(`{}`))
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		err := VerifySlackSignature(testSecret, signedHeader("other", time.Now(), body), body)
		require.Error(t, err)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		err := VerifySlackSignature(testSecret, signedHeader(testSecret, time.Now().Add(-10*time.Minute), body), body)
		require.Error(t, err)
	})

	t.Run("missing headers", func(t *testing.T) {
		err := VerifySlackSignature(testSecret, http.Header{}, body)
		require.Error(t, err)
	})

	t.Run("empty secret", func(t *testing.T) {
		err := VerifySlackSignature("", signedHeader("", time.Now(), body), body)
		require.Error(t, err)
	})
}
