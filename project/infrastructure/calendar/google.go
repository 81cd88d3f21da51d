package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"lunch-scheduler/project/domain"
	"lunch-scheduler/project/infrastructure/config"
	"lunch-scheduler/project/service"
)

// GoogleClient は service.CalendarPort の Google Calendar 実装です
type GoogleClient struct {
	clientID     string
	clientSecret string
	refreshToken string

	// newService はテストで API の接続先を差し替えるために使います
	newService func(ctx context.Context) (*gcal.Service, error)
}

// NewGoogleClient は設定から Google Calendar クライアントを作成します
// 認証情報が未設定でも作成でき、Lookup 時に domain.ErrConfiguration を返します
func NewGoogleClient(cfg *config.Config) *GoogleClient {
	gc := &GoogleClient{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		refreshToken: cfg.GoogleRefreshToken,
	}
	gc.newService = gc.oauthService
	return gc
}

// oauthService はリフレッシュトークンから Calendar API サービスを作成します
func (gc *GoogleClient) oauthService(ctx context.Context) (*gcal.Service, error) {
	if gc.refreshToken == "" {
		return nil, errors.New("GOOGLE_REFRESH_TOKEN が設定されていません")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     gc.clientID,
		ClientSecret: gc.clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarReadonlyScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: gc.refreshToken})

	return gcal.NewService(ctx, option.WithTokenSource(ts))
}

// Lookup は req.Email のカレンダーから期間内の予定と空き時間を取得します
func (gc *GoogleClient) Lookup(ctx context.Context, req service.CalendarRequest) (*domain.CalendarWindow, error) {
	if gc.clientID == "" || gc.clientSecret == "" {
		return nil, fmt.Errorf("calendar: %w: GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET", domain.ErrConfiguration)
	}
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("calendar: %w: 終了時刻は開始時刻より後である必要があります", domain.ErrInvalid)
	}

	svc, err := gc.newService(ctx)
	if err != nil {
		return nil, fmt.Errorf("calendar: サービス作成失敗: %w", err)
	}

	timeMin := req.Start.UTC().Format(time.RFC3339)
	timeMax := req.End.UTC().Format(time.RFC3339)

	events, err := svc.Events.List(req.Email).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: 予定取得失敗 (email=%s): %w", req.Email, err)
	}

	fb, err := svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: timeMin,
		TimeMax: timeMax,
		Items:   []*gcal.FreeBusyRequestItem{{Id: req.Email}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: 空き時間取得失敗 (email=%s): %w", req.Email, err)
	}

	busyCal, ok := fb.Calendars[req.Email]
	if ok && len(busyCal.Errors) > 0 {
		return nil, fmt.Errorf("calendar: 空き時間取得失敗 (email=%s): %s", req.Email, busyCal.Errors[0].Reason)
	}

	busy := make([]domain.TimeSlot, 0, len(busyCal.Busy))
	for _, p := range busyCal.Busy {
		busy = append(busy, domain.TimeSlot{Start: p.Start, End: p.End})
	}

	return &domain.CalendarWindow{
		Events:    toEvents(events.Items),
		FreeSlots: freeSlots(req.Start, req.End, busy),
	}, nil
}

// toEvents は API の予定を domain.CalendarEvent に変換します。終日予定は日付のみになります
func toEvents(items []*gcal.Event) []domain.CalendarEvent {
	events := make([]domain.CalendarEvent, 0, len(items))
	for _, item := range items {
		events = append(events, domain.CalendarEvent{
			ID:      item.Id,
			Summary: item.Summary,
			Start:   eventTime(item.Start),
			End:     eventTime(item.End),
			Status:  item.Status,
		})
	}
	return events
}

func eventTime(t *gcal.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// freeSlots は [start, end) から busy 区間を除いた空き時間を UTC の RFC 3339 で返します。
// 解析できない busy 区間は無視します
func freeSlots(start, end time.Time, busy []domain.TimeSlot) []domain.TimeSlot {
	type span struct{ s, e time.Time }

	spans := make([]span, 0, len(busy))
	for _, b := range busy {
		s, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			continue
		}
		e, err := time.Parse(time.RFC3339, b.End)
		if err != nil || !e.After(s) {
			continue
		}
		spans = append(spans, span{s, e})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].s.Before(spans[j].s) })

	slots := make([]domain.TimeSlot, 0, len(spans)+1)
	cursor := start
	for _, sp := range spans {
		if !sp.e.After(cursor) {
			continue
		}
		if sp.s.After(cursor) {
			slotEnd := sp.s
			if slotEnd.After(end) {
				slotEnd = end
			}
			if slotEnd.After(cursor) {
				slots = append(slots, newSlot(cursor, slotEnd))
			}
		}
		cursor = sp.e
		if !cursor.Before(end) {
			return slots
		}
	}
	if end.After(cursor) {
		slots = append(slots, newSlot(cursor, end))
	}
	return slots
}

func newSlot(s, e time.Time) domain.TimeSlot {
	return domain.TimeSlot{
		Start: s.UTC().Format(time.RFC3339),
		End:   e.UTC().Format(time.RFC3339),
	}
}
