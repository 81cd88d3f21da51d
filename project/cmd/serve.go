package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/idtoken"

	"lunch-scheduler/project/handler"
	"lunch-scheduler/project/infrastructure/calendar"
	"lunch-scheduler/project/infrastructure/config"
	"lunch-scheduler/project/infrastructure/logging"
	"lunch-scheduler/project/infrastructure/middleware"
	"lunch-scheduler/project/infrastructure/secret"
	"lunch-scheduler/project/infrastructure/slack"
	"lunch-scheduler/project/infrastructure/store"
	"lunch-scheduler/project/infrastructure/tasks"
	"lunch-scheduler/project/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Slack Events API (/slack/events) と Cloud Tasks のコールバック (/tasks/lunch) を受け付けます。
設定は環境変数から読み込み、GCP_PROJECT が設定されていれば不足する秘密情報を Secret Manager から取得します。`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// workflowDispatcher は終了時に後片付けが必要な Dispatcher です
type workflowDispatcher interface {
	handler.Dispatcher
	Close() error
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 設定を読み込む
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("設定読み込み失敗: %w", err)
	}
	logger := logging.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	// 2. 依存関係を初期化
	slackClient := slack.NewSlackClient(cfg.SlackBotToken)
	if cfg.BotUserID == "" {
		botUserID, err := slackClient.BotUserID(ctx)
		if err != nil {
			return fmt.Errorf("Bot ユーザーID取得失敗: %w", err)
		}
		cfg.BotUserID = botUserID
	}

	repo, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ストア初期化失敗: %w", err)
	}
	defer repo.Close()

	var cal service.CalendarPort
	if cfg.CalendarConfigured() {
		cal = calendar.NewGoogleClient(cfg)
	} else {
		logger.Warn("Google Calendar の認証情報が未設定のため、空き時間は表示されません")
	}

	// 3. サービス層を初期化
	lunchService := service.NewLunchService(cfg, repo, slackClient, cal, slackClient, logger)

	var (
		dispatcher workflowDispatcher
		validator  middleware.TokenValidator
	)
	if cfg.UseCloudTasks() {
		dispatcher, err = tasks.NewCloudTasksDispatcher(ctx, cfg)
		if err != nil {
			return fmt.Errorf("Cloud Tasks クライアント初期化失敗: %w", err)
		}
		validator, err = idtoken.NewValidator(ctx)
		if err != nil {
			return fmt.Errorf("OIDC トークン検証の初期化失敗: %w", err)
		}
	} else {
		dispatcher = tasks.NewInlineDispatcher(lunchService, cfg.WorkflowTimeout, logger)
	}
	defer dispatcher.Close()

	// 4. HTTP サーバー起動
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, lunchService, dispatcher, validator, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("サーバー起動",
			slog.String("addr", srv.Addr),
			slog.String("environment", cfg.Environment),
			slog.String("store", cfg.StoreDriver),
			slog.Bool("cloud_tasks", cfg.UseCloudTasks()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーエラー: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("サーバー停止中")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadConfig は環境変数と Secret Manager から設定を読み込みます
func loadConfig(ctx context.Context) (*config.Config, error) {
	v := config.NewViper()

	var secrets config.SecretSource
	if project := v.GetString("GCP_PROJECT"); project != "" {
		resolver, err := secret.NewResolver(ctx, project)
		if err != nil {
			return nil, fmt.Errorf("Secret Manager 初期化失敗: %w", err)
		}
		defer resolver.Close()
		secrets = resolver
	}

	return config.NewConfig(ctx, v, secrets)
}

// newRouter は HTTP ルーティングを設定します
// /tasks/lunch は Cloud Tasks を使う場合のみ、OIDC トークン検証付きで登録します
func newRouter(
	cfg *config.Config,
	lunchService service.LunchService,
	dispatcher handler.Dispatcher,
	validator middleware.TokenValidator,
	logger *slog.Logger,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger), middleware.Metrics)

	// Slack イベント受信
	r.Handle("/slack/events",
		middleware.WebhookRateLimit(cfg.TrustedProxyHops)(handler.NewEventsHandler(cfg.SlackSigningSecret, dispatcher, logger)),
	).Methods(http.MethodPost)

	// Cloud Tasks からのコールバック
	if cfg.UseCloudTasks() && validator != nil {
		auth := middleware.OIDCAuth(validator, cfg.TasksOIDCAudience(), cfg.TasksServiceAccount, logger)
		r.Handle("/tasks/lunch",
			auth(handler.NewTaskHandler(lunchService, cfg.WorkflowTimeout, logger)),
		).Methods(http.MethodPost)
	}

	// ヘルスチェック
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
