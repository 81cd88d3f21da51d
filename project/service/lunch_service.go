package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lunch-scheduler/project/domain"
	"lunch-scheduler/project/infrastructure/config"
	"lunch-scheduler/project/infrastructure/metrics"
	"lunch-scheduler/project/lunch"
)

// LunchService はランチ予約ワークフローを実行するサービスです
type LunchService interface {
	// HandleMention はメンションを解析し、必要に応じて参加者情報とカレンダーを取得し、
	// 予約を保存して確認メッセージを投稿します。予約は意図にかかわらず1メッセージにつき1件保存します
	// 保存に失敗した場合はメッセージを投稿せずに domain.ErrPersistence を返します
	HandleMention(ctx context.Context, msg *domain.RawMessage) (*Outcome, error)
}

// lunchService は LunchService の実装です
type lunchService struct {
	cfg       *config.Config
	repo      domain.BookingRepository
	dir       UserDirectory
	cal       CalendarPort
	mp        MessagePort
	formatter *lunch.Formatter
	builder   *lunch.RecordBuilder
	logger    *slog.Logger
	now       func() time.Time
}

// NewLunchService は LunchService のインスタンスを作成します
// dir と cal は nil でもよく、その場合は該当する情報の取得を行いません
func NewLunchService(
	cfg *config.Config,
	repo domain.BookingRepository,
	dir UserDirectory,
	cal CalendarPort,
	mp MessagePort,
	logger *slog.Logger,
) LunchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &lunchService{
		cfg:       cfg,
		repo:      repo,
		dir:       dir,
		cal:       cal,
		mp:        mp,
		formatter: lunch.NewFormatter(cfg.Location),
		builder:   lunch.NewRecordBuilder(),
		logger:    logger,
		now:       time.Now,
	}
}

// HandleMention はランチ予約ワークフローを実行します
func (ls *lunchService) HandleMention(ctx context.Context, msg *domain.RawMessage) (*Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
	}()

	if msg == nil {
		return nil, fmt.Errorf("HandleMention: %w: メッセージがありません", domain.ErrInvalid)
	}
	if err := msg.Validate(); err != nil {
		metrics.WorkflowsProcessed.WithLabelValues(domain.IntentInvalid.String(), "invalid_input").Inc()
		return nil, fmt.Errorf("HandleMention: 入力検証失敗: %w", err)
	}

	logger := ls.logger.With(
		slog.String("channel_id", msg.ChannelID),
		slog.String("user_id", msg.AuthorUserID),
	)

	// 1. 参加者と日時を抽出
	extraction := lunch.ParseMessage(msg.Text, ls.cfg.BotUserID)
	intent := lunch.Classify(extraction.HasMentions, extraction.HasDateTime)
	logger.Info("メッセージを解析しました",
		slog.String("intent", intent.String()),
		slog.Any("extracted_users", extraction.MentionedUsers),
		slog.String("extracted_datetime", extraction.DateTimeToken),
	)

	out := &Outcome{Extraction: extraction, Intent: intent}

	// 2. 参加者情報とカレンダーの取得（日程調整のときのみ）
	if intent == domain.IntentMentionsOnly && ls.cfg.EnrichmentEnabled && ls.dir != nil {
		emails := ls.lookupEmails(ctx, logger, extraction.MentionedUsers)
		out.Emails = &emails

		if email := firstEmail(emails.Users); email != "" {
			cal := ls.lookupCalendar(ctx, logger, email)
			out.Calendar = &cal
		}
	}

	var freeSlots []domain.TimeSlot
	if out.Calendar != nil && out.Calendar.Success {
		freeSlots = out.Calendar.Window.FreeSlots
	}

	// 3. メッセージ整形と予約保存（メンションも日時もない場合も使用例とともに記録する）
	out.Message = ls.formatter.Format(intent, msg.AuthorUserID, extraction.DateTimeToken, extraction.MentionedUsers, freeSlots)

	channel := ""
	if ls.cfg.RecordChannel {
		channel = msg.ChannelID
	}
	record := ls.builder.Build(msg.AuthorUserID, extraction.DateTimeToken, extraction.MentionedUsers, channel)

	if err := ls.repo.Put(ctx, &record); err != nil {
		metrics.BookingsStored.WithLabelValues("error").Inc()
		metrics.WorkflowsProcessed.WithLabelValues(intent.String(), "persistence_error").Inc()
		logger.Error("予約の保存に失敗しました",
			slog.String("booking_id", record.BookingID),
			slog.Any("error", err),
		)
		return nil, &PersistenceError{Err: err}
	}
	metrics.BookingsStored.WithLabelValues("ok").Inc()
	logger.Info("予約を保存しました", slog.String("booking_id", record.BookingID))
	out.Record = &record

	// 4. 確認メッセージ投稿
	ls.post(ctx, logger, msg.ChannelID, out.Message)

	metrics.WorkflowsProcessed.WithLabelValues(intent.String(), "ok").Inc()
	return out, nil
}

// lookupEmails は参加者のメールアドレスを入力順に1件ずつ取得します。
// 1件の失敗で全体を止めず、失敗したユーザーは Email を空にして記録します
func (ls *lunchService) lookupEmails(ctx context.Context, logger *slog.Logger, userIDs []string) EmailLookupResult {
	result := EmailLookupResult{
		Users:   make([]domain.UserEmailInfo, 0, len(userIDs)),
		Success: true,
	}
	var errMsg strings.Builder

	logger.Debug("メールアドレス取得開始", slog.Int("users", len(userIDs)))

	for i, userID := range userIDs {
		// 呼び出し元のコンテキストが終了した場合は残りを空で埋めて打ち切る
		if err := ctx.Err(); err != nil {
			for _, rest := range userIDs[i:] {
				result.Users = append(result.Users, unknownUser(rest))
			}
			result.Success = false
			fmt.Fprintf(&errMsg, "ユーザー情報取得を中断しました: %v。", err)
			break
		}

		info, err := ls.lookupUser(ctx, userID)
		switch {
		case err == nil:
			if info == nil {
				info = &domain.UserEmailInfo{DisplayName: "Unknown"}
			}
			info.UserID = userID
			if info.Email == "" {
				logger.Warn("メールアドレスなし", slog.String("target_user_id", userID))
			}
			result.Users = append(result.Users, *info)
			metrics.Lookups.WithLabelValues("directory", "ok").Inc()

		case errors.Is(err, domain.ErrNotFound):
			logger.Warn("ユーザーが見つかりません", slog.String("target_user_id", userID))
			result.Users = append(result.Users, unknownUser(userID))
			metrics.Lookups.WithLabelValues("directory", "not_found").Inc()

		default:
			logger.Warn("ユーザー情報取得失敗",
				slog.String("target_user_id", userID),
				slog.Any("error", err),
			)
			result.Users = append(result.Users, unknownUser(userID))
			result.Success = false
			fmt.Fprintf(&errMsg, "ユーザー%sの情報取得に失敗。", userID)
			metrics.Lookups.WithLabelValues("directory", "error").Inc()
		}
	}

	result.ErrorMessage = errMsg.String()
	logger.Debug("メールアドレス取得完了", slog.String("user_emails_json", result.UsersJSON()))
	return result
}

// lookupUser は1件の取得にタイムアウトを設定して UserDirectory を呼び出します
func (ls *lunchService) lookupUser(ctx context.Context, userID string) (*domain.UserEmailInfo, error) {
	if ls.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ls.cfg.LookupTimeout)
		defer cancel()
	}
	return ls.dir.LookupUser(ctx, userID)
}

// lookupCalendar は参加者1名分のカレンダーを取得します。失敗しても予約処理は続行します
func (ls *lunchService) lookupCalendar(ctx context.Context, logger *slog.Logger, email string) CalendarResult {
	if ls.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ls.cfg.LookupTimeout)
		defer cancel()
	}

	now := ls.now()
	result := FetchCalendar(ctx, ls.cal, CalendarRequest{
		Email: email,
		Start: now,
		End:   now.Add(ls.cfg.CalendarLookahead),
	})

	if !result.Success {
		logger.Warn("カレンダー情報を取得できませんでした", slog.String("error", result.ErrorMessage))
		metrics.Lookups.WithLabelValues("calendar", "error").Inc()
		return result
	}

	logger.Info("カレンダー情報取得成功",
		slog.Int("events", len(result.Window.Events)),
		slog.Int("free_slots", len(result.Window.FreeSlots)),
	)
	metrics.Lookups.WithLabelValues("calendar", "ok").Inc()
	return result
}

// FetchCalendar は CalendarPort を呼び出し、エラーを CalendarResult に変換します。
// 認証情報の不足は実行時エラーと区別し、決まったメッセージを返します
func FetchCalendar(ctx context.Context, port CalendarPort, req CalendarRequest) CalendarResult {
	if port == nil {
		return CalendarResult{ErrorMessage: CalendarCredentialsMissingMessage}
	}

	window, err := port.Lookup(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return CalendarResult{ErrorMessage: CalendarCredentialsMissingMessage}
		}
		return CalendarResult{ErrorMessage: calendarErrorPrefix + err.Error()}
	}

	if window == nil {
		return CalendarResult{Success: true}
	}
	return CalendarResult{Success: true, Window: *window}
}

// post は確認メッセージを投稿します。失敗してもワークフローは成功として扱います
func (ls *lunchService) post(ctx context.Context, logger *slog.Logger, channelID, text string) {
	if ls.mp == nil {
		return
	}
	if err := ls.mp.PostMessage(ctx, channelID, text); err != nil {
		logger.Warn("メッセージ投稿失敗", slog.Any("error", err))
		metrics.MessagesPosted.WithLabelValues("error").Inc()
		return
	}
	metrics.MessagesPosted.WithLabelValues("ok").Inc()
}

func unknownUser(userID string) domain.UserEmailInfo {
	return domain.UserEmailInfo{UserID: userID, Email: "", DisplayName: "Unknown"}
}

func firstEmail(users []domain.UserEmailInfo) string {
	for _, u := range users {
		if u.Email != "" {
			return u.Email
		}
	}
	return ""
}
