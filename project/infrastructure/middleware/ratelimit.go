package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedClients は保持するクライアントごとのリミッター数の上限です（古いものから捨てる）
const maxTrackedClients = 10000

// ipLimiters はクライアントごとのトークンバケットを LRU で保持します
type ipLimiters struct {
	mu          sync.Mutex
	limiters    *lru.Cache[string, *rate.Limiter]
	limit       rate.Limit
	burst       int
	trustedHops int
}

func newIPLimiters(requestsPerSecond float64, burstSize, trustedHops, size int) *ipLimiters {
	if size <= 0 {
		size = maxTrackedClients
	}
	// lru.New がエラーを返すのは size <= 0 の場合のみ
	cache, _ := lru.New[string, *rate.Limiter](size)
	return &ipLimiters{
		limiters:    cache,
		limit:       rate.Limit(requestsPerSecond),
		burst:       burstSize,
		trustedHops: trustedHops,
	}
}

func (l *ipLimiters) allow(r *http.Request) bool {
	key := clientIP(r, l.trustedHops)

	l.mu.Lock()
	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, limiter)
	}
	l.mu.Unlock()

	return limiter.Allow()
}

func (l *ipLimiters) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "Rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// PerIPRateLimit はクライアント IP ごとにトークンバケットで流量を制限します
// trustedHops は手前にある信頼済みプロキシの段数で、0 なら X-Forwarded-For を見ません
func PerIPRateLimit(requestsPerSecond float64, burstSize, trustedHops int) func(http.Handler) http.Handler {
	return newIPLimiters(requestsPerSecond, burstSize, trustedHops, maxTrackedClients).middleware
}

// WebhookRateLimit は Slack Webhook 向けの制限です
func WebhookRateLimit(trustedHops int) func(http.Handler) http.Handler {
	return PerIPRateLimit(100, 200, trustedHops)
}

// clientIP は制限のキーにするクライアント IP を返します
// X-Forwarded-For の左側は送信元が自由に書けるため、右から trustedHops 番目（信頼済みプロキシが付けた値）だけを使います
func clientIP(r *http.Request, trustedHops int) string {
	if trustedHops > 0 {
		if hops := forwardedFor(r.Header); len(hops) > 0 {
			idx := len(hops) - trustedHops
			if idx < 0 {
				idx = 0
			}
			return hops[idx]
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedFor は複数ヘッダ行も含めて X-Forwarded-For を左から順に並べます
func forwardedFor(h http.Header) []string {
	var hops []string
	for _, line := range h.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(line, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}
