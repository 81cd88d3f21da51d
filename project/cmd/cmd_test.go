package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"

	"lunch-scheduler/project/domain"
	"lunch-scheduler/project/dto"
	"lunch-scheduler/project/infrastructure/config"
	"lunch-scheduler/project/lunch"
	"lunch-scheduler/project/service"
)

func TestDryRun(t *testing.T) {
	f := lunch.NewFormatter(time.UTC)
	rb := lunch.NewRecordBuilder()

	t.Run("mentions and date", func(t *testing.T) {
		res := dryRun("<@UBOT> <@U1> <@U2> 2024-07-20 12:30", "UBOT", "U0", "", f, rb)

		require.Equal(t, "both", res.Intent)
		require.Equal(t, []string{"U1", "U2"}, res.Extraction.MentionedUsers)
		require.Equal(t, "2024-07-20 12:30", res.Extraction.DateTimeToken)
		require.Contains(t, res.Message, "👥 **参加者**: <@U1>, <@U2>")
		require.NotNil(t, res.Record)
		require.Equal(t, "U1,U2", res.Record.Participants)
	})

	t.Run("usage", func(t *testing.T) {
		res := dryRun("<@UBOT> hello", "UBOT", "U0", "", f, rb)

		require.Equal(t, "invalid", res.Intent)
		require.Equal(t, lunch.UsageMessage, res.Message)
		require.NotNil(t, res.Record)
		require.Empty(t, res.Record.Participants)
	})
}

func TestParseCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"parse", "<@UBOT> <@U1> 7/20 12:00", "--self", "UBOT", "--author", "U0"})
	require.NoError(t, rootCmd.Execute())

	var res parseResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Equal(t, "both", res.Intent)
	require.Equal(t, "7/20 12:00", res.Record.LunchDateTime)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	require.True(t, strings.HasPrefix(out.String(), "lunch-scheduler dev\n"))
}

func TestCalendarRange(t *testing.T) {
	now := time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC)

	start, end, err := calendarRange("", "", now)
	require.NoError(t, err)
	require.Equal(t, now, start)
	require.Equal(t, now.Add(24*time.Hour), end)

	start, end, err = calendarRange("2024-07-20T09:00:00+09:00", "2024-07-20T18:00:00+09:00", now)
	require.NoError(t, err)
	require.Equal(t, 9*time.Hour, end.Sub(start))

	_, _, err = calendarRange("2024-07-20T18:00:00Z", "2024-07-20T09:00:00Z", now)
	require.Error(t, err)

	_, _, err = calendarRange("tomorrow", "", now)
	require.Error(t, err)
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(ctx context.Context, p *dto.LunchTaskPayload) error { return nil }

type nopService struct{}

func (nopService) HandleMention(ctx context.Context, msg *domain.RawMessage) (*service.Outcome, error) {
	return &service.Outcome{}, nil
}

func TestRouter(t *testing.T) {
	cfg := &config.Config{SlackSigningSecret: "secret", WorkflowTimeout: time.Second}
	r := newRouter(cfg, nopService{}, nopDispatcher{}, nil, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/slack/events", http.StatusMethodNotAllowed},
		{http.MethodPost, "/slack/events", http.StatusUnauthorized},
		{http.MethodGet, "/unknown", http.StatusNotFound},
		// TASKS_QUEUE 未設定ならワークフローの入口は公開しない
		{http.MethodPost, "/tasks/lunch", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"type":"event_callback"}`)))
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

// fixedTokenValidator は決まったトークンと audience の組だけを通します
type fixedTokenValidator struct {
	token    string
	audience string
	email    string
}

func (v fixedTokenValidator) Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
	if idToken != v.token || audience != v.audience {
		return nil, errors.New("idtoken: invalid token")
	}
	return &idtoken.Payload{Audience: audience, Claims: map[string]interface{}{"email": v.email}}, nil
}

func TestRouterTasksEndpoint(t *testing.T) {
	cfg := &config.Config{
		SlackSigningSecret:  "secret",
		WorkflowTimeout:     time.Second,
		TasksQueue:          "lunch",
		TasksAudience:       "https://lunch-bot.example.run.app/",
		TasksServiceAccount: "tasks@lunch.iam.gserviceaccount.com",
	}
	validator := fixedTokenValidator{
		token:    "good-token",
		audience: "https://lunch-bot.example.run.app",
		email:    "tasks@lunch.iam.gserviceaccount.com",
	}
	r := newRouter(cfg, nopService{}, nopDispatcher{}, validator, nil)

	body := `{"event_id":"Ev1","text":"<@UBOT> 7/20 12:30","channel_id":"C1","user_id":"U0"}`
	tests := []struct {
		name          string
		authorization string
		want          int
	}{
		{name: "no token", want: http.StatusUnauthorized},
		{name: "forged token", authorization: "Bearer forged", want: http.StatusUnauthorized},
		{name: "valid token", authorization: "Bearer good-token", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tasks/lunch", strings.NewReader(body))
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouterTasksEndpointOtherServiceAccount(t *testing.T) {
	cfg := &config.Config{
		SlackSigningSecret:  "secret",
		TasksQueue:          "lunch",
		TasksAudience:       "https://lunch-bot.example.run.app",
		TasksServiceAccount: "tasks@lunch.iam.gserviceaccount.com",
	}
	validator := fixedTokenValidator{
		token:    "good-token",
		audience: "https://lunch-bot.example.run.app",
		email:    "someone@other.iam.gserviceaccount.com",
	}
	r := newRouter(cfg, nopService{}, nopDispatcher{}, validator, nil)

	req := httptest.NewRequest(http.MethodPost, "/tasks/lunch", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
