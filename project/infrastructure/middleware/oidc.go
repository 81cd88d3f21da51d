package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
)

// TokenValidator は Google 発行の ID トークンを検証します（*idtoken.Validator が実装）
type TokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// OIDCAuth は Cloud Tasks が付与する OIDC トークンを検証します
// serviceAccount が空でなければ、トークンの email がそのサービスアカウントであることも確認します
func OIDCAuth(validator TokenValidator, audience, serviceAccount string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "認証が必要です", http.StatusUnauthorized)
				return
			}

			payload, err := validator.Validate(r.Context(), token, audience)
			if err != nil {
				logger.Warn("OIDC トークン検証失敗", slog.Any("error", err))
				http.Error(w, "認証が必要です", http.StatusUnauthorized)
				return
			}

			if serviceAccount != "" {
				email, _ := payload.Claims["email"].(string)
				if email != serviceAccount {
					logger.Warn("想定外のサービスアカウント", slog.String("email", email))
					http.Error(w, "許可されていません", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
