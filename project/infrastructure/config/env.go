package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // distroless イメージでも Asia/Tokyo を読み込めるようにする

	"github.com/spf13/viper"

	"lunch-scheduler/project/domain"
)

// ストアの種類
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
	StoreMemory    = "memory"
)

// SecretSource は環境変数にない秘密情報の取得元です（Secret Manager など）
type SecretSource interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Config は環境変数から読み込まれるアプリケーション設定を表します
type Config struct {
	// 基本設定
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string
	GcpProject  string
	Region      string

	// Slack API設定
	SlackBotToken      string // Secret Manager からも読み込み可
	SlackSigningSecret string // Secret Manager からも読み込み可
	BotUserID          string // 空の場合は起動時に auth.test で解決

	// ストア設定
	StoreDriver        string
	DatabaseURL        string
	FirestoreProjectID string
	CollectionBookings string

	// Cloud Tasks設定（TasksQueue が空の場合はプロセス内で実行）
	TasksQueue          string
	TasksAudience       string
	TasksServiceAccount string

	// TrustedProxyHops は X-Forwarded-For を付与する信頼済みプロキシの段数（0 の場合は接続元アドレスを使う）
	TrustedProxyHops int

	// Google Calendar設定（未設定でも起動し、カレンダー取得時にエラーを返す）
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	// ワークフロー設定
	Location          *time.Location
	LookupTimeout     time.Duration
	CalendarLookahead time.Duration
	WorkflowTimeout   time.Duration
	EnrichmentEnabled bool
	RecordChannel     bool
}

// NewViper は環境変数を読み込む viper インスタンスを作成します
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("FS_COLLECTION_BOOKINGS", "LunchBookings")
	v.SetDefault("TIMEZONE", "Asia/Tokyo")
	v.SetDefault("LOOKUP_TIMEOUT", "5s")
	v.SetDefault("CALENDAR_LOOKAHEAD", "24h")
	v.SetDefault("WORKFLOW_TIMEOUT", "30s")
	v.SetDefault("ENRICHMENT_ENABLED", true)
	v.SetDefault("BOOKING_RECORD_CHANNEL", false)
	v.SetDefault("TRUSTED_PROXY_HOPS", 0)
}

// NewConfig は環境変数から設定を読み込み、Config構造体を返します
// センシティブな情報は環境変数になければ secrets から取得します（secrets は nil 可）
func NewConfig(ctx context.Context, v *viper.Viper, secrets SecretSource) (*Config, error) {
	setDefaults(v)

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid TIMEZONE: %v", domain.ErrInvalid, err)
	}

	lookupTimeout, err := parseDuration(v, "LOOKUP_TIMEOUT")
	if err != nil {
		return nil, err
	}
	calendarLookahead, err := parseDuration(v, "CALENDAR_LOOKAHEAD")
	if err != nil {
		return nil, err
	}
	workflowTimeout, err := parseDuration(v, "WORKFLOW_TIMEOUT")
	if err != nil {
		return nil, err
	}

	// 秘密情報は環境変数 → Secret Manager の順に探す
	slackBotToken, err := resolveSecret(ctx, v, secrets, "SLACK_BOT_TOKEN", "slack-bot-token")
	if err != nil {
		return nil, err
	}
	slackSigningSecret, err := resolveSecret(ctx, v, secrets, "SLACK_SIGNING_SECRET", "slack-signing-secret")
	if err != nil {
		return nil, err
	}

	// Google 認証情報は任意（未登録なら空のまま、それ以外の取得エラーは起動失敗）
	googleClientID, err := optionalSecret(ctx, v, secrets, "GOOGLE_CLIENT_ID", "google-client-id")
	if err != nil {
		return nil, err
	}
	googleClientSecret, err := optionalSecret(ctx, v, secrets, "GOOGLE_CLIENT_SECRET", "google-client-secret")
	if err != nil {
		return nil, err
	}
	googleRefreshToken, err := optionalSecret(ctx, v, secrets, "GOOGLE_REFRESH_TOKEN", "google-refresh-token")
	if err != nil {
		return nil, err
	}

	gcpProject := v.GetString("GCP_PROJECT")
	firestoreProjectID := v.GetString("FIRESTORE_PROJECT_ID")
	if firestoreProjectID == "" {
		firestoreProjectID = gcpProject
	}

	cfg := &Config{
		// 基本設定
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		GcpProject:  gcpProject,
		Region:      v.GetString("REGION"),

		// Slack API設定
		SlackBotToken:      slackBotToken,
		SlackSigningSecret: slackSigningSecret,
		BotUserID:          v.GetString("BOT_USER_ID"),

		// ストア設定
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		FirestoreProjectID: firestoreProjectID,
		CollectionBookings: v.GetString("FS_COLLECTION_BOOKINGS"),

		// Cloud Tasks設定
		TasksQueue:          v.GetString("TASKS_QUEUE"),
		TasksAudience:       v.GetString("TASKS_AUDIENCE"),
		TasksServiceAccount: v.GetString("TASKS_SERVICE_ACCOUNT"),
		TrustedProxyHops:    v.GetInt("TRUSTED_PROXY_HOPS"),

		// Google Calendar設定
		GoogleClientID:     googleClientID,
		GoogleClientSecret: googleClientSecret,
		GoogleRefreshToken: googleRefreshToken,

		// ワークフロー設定
		Location:          loc,
		LookupTimeout:     lookupTimeout,
		CalendarLookahead: calendarLookahead,
		WorkflowTimeout:   workflowTimeout,
		EnrichmentEnabled: v.GetBool("ENRICHMENT_ENABLED"),
		RecordChannel:     v.GetBool("BOOKING_RECORD_CHANNEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は設定の組み合わせを検証します
func (c *Config) Validate() error {
	var problems []string

	if c.SlackBotToken == "" {
		problems = append(problems, "SLACK_BOT_TOKEN is required")
	} else if !strings.HasPrefix(c.SlackBotToken, "xoxb-") {
		problems = append(problems, "SLACK_BOT_TOKEN must start with 'xoxb-'")
	}
	if c.SlackSigningSecret == "" {
		problems = append(problems, "SLACK_SIGNING_SECRET is required")
	}

	switch c.StoreDriver {
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			problems = append(problems, "FIRESTORE_PROJECT_ID or GCP_PROJECT is required for firestore")
		}
	case StorePostgres, StoreSQLite:
		if c.DatabaseURL == "" {
			problems = append(problems, fmt.Sprintf("DATABASE_URL is required for %s", c.StoreDriver))
		}
	case StoreMemory:
	default:
		problems = append(problems, "STORE_DRIVER must be one of: firestore, postgres, sqlite, memory")
	}

	if c.TasksQueue != "" {
		if c.GcpProject == "" || c.Region == "" {
			problems = append(problems, "GCP_PROJECT and REGION are required when TASKS_QUEUE is set")
		}
		if c.TasksAudience == "" {
			problems = append(problems, "TASKS_AUDIENCE is required when TASKS_QUEUE is set")
		}
	}

	if c.TrustedProxyHops < 0 {
		problems = append(problems, "TRUSTED_PROXY_HOPS must not be negative")
	}

	if c.CalendarLookahead <= 0 {
		problems = append(problems, "CALENDAR_LOOKAHEAD must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// CalendarConfigured は Google Calendar の認証情報が揃っているかを返します
func (c *Config) CalendarConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// UseCloudTasks はワークフローを Cloud Tasks 経由で実行するかを返します
func (c *Config) UseCloudTasks() bool {
	return c.TasksQueue != ""
}

// TasksOIDCAudience は Cloud Tasks の OIDC トークンに載せる audience です
// 発行側と検証側で同じ値になるよう末尾のスラッシュを落とします
func (c *Config) TasksOIDCAudience() string {
	return strings.TrimRight(c.TasksAudience, "/")
}

// resolveSecret は環境変数を優先し、なければ SecretSource から取得します
func resolveSecret(ctx context.Context, v *viper.Viper, secrets SecretSource, envKey, secretName string) (string, error) {
	if value := v.GetString(envKey); value != "" {
		return value, nil
	}
	if secrets == nil {
		return "", nil
	}

	value, err := secrets.GetSecret(ctx, secretName)
	if err != nil {
		return "", fmt.Errorf("%s 取得失敗: %w", envKey, err)
	}
	return value, nil
}

// optionalSecret は resolveSecret と同じ順で探しますが、未登録 (domain.ErrNotFound) は空文字として扱います
func optionalSecret(ctx context.Context, v *viper.Viper, secrets SecretSource, envKey, secretName string) (string, error) {
	value, err := resolveSecret(ctx, v, secrets, envKey, secretName)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return value, err
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s format: %v", domain.ErrInvalid, key, err)
	}
	return d, nil
}
